package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/paperpal/internal/config"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/dgallion1/paperpal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory PaperStore.
type memStore struct {
	mu     sync.Mutex
	papers map[string]store.Paper
	failOn string
}

func newMemStore() *memStore {
	return &memStore{papers: map[string]store.Paper{}}
}

func (m *memStore) Insert(_ context.Context, p store.Paper) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Filename == m.failOn {
		return "", errors.New("disk full")
	}
	id := "doc-" + p.ContentHash[:8]
	p.ID = id
	m.papers[id] = p
	return id, nil
}

func (m *memStore) FindByHash(_ context.Context, hash string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.papers {
		if p.ContentHash == hash {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.papers)
}

const paperText = "A Study of Things\nAbstract\nWe study things.\nResults\nThey work."

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorker(ps PaperStore) *Worker {
	return NewWorker(ps, sections.New(sections.DefaultPolicy()), discardLogger(), Options{})
}

func TestWorker_Analyze(t *testing.T) {
	w := testWorker(newMemStore())
	a, err := w.Analyze(Upload{Filename: "paper.txt", ContentType: "text/plain", Data: []byte(paperText)})
	require.NoError(t, err)
	assert.Equal(t, "A Study of Things", a.PaperTitle)

	var names []string
	for _, s := range a.Sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"title", "abstract", "results"}, names)
}

func TestWorker_IngestStoresEveryTime(t *testing.T) {
	ms := newMemStore()
	w := testWorker(ms)
	up := Upload{Filename: "paper.txt", ContentType: "text/plain", Data: []byte(paperText)}

	p, err := w.Ingest(context.Background(), up)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 3, p.NumSections)
	assert.Equal(t, ContentHashHex(up.Data), p.ContentHash)

	_, err = w.Ingest(context.Background(), Upload{Filename: "empty.pdf", ContentType: "application/pdf"})
	assert.True(t, IsClientError(err))
}

func TestWorker_Process(t *testing.T) {
	ms := newMemStore()
	w := testWorker(ms)

	job := NewJob("paper.txt", "text/plain", []byte(paperText))
	w.Process(context.Background(), job)
	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, "A Study of Things", snap.PaperTitle)
	assert.Equal(t, 3, snap.NumSections)
	assert.NotEmpty(t, snap.DocID)
	assert.Nil(t, job.FileData())

	dup := NewJob("copy.txt", "text/plain", []byte(paperText))
	w.Process(context.Background(), dup)
	dsnap := dup.Snapshot()
	assert.Equal(t, StatusDupSkipped, dsnap.Status)
	assert.Equal(t, snap.DocID, dsnap.DuplicateOf)
	assert.Equal(t, 1, ms.count())
}

func TestWorker_ProcessFailures(t *testing.T) {
	ms := newMemStore()
	ms.failOn = "full.txt"
	w := testWorker(ms)

	bad := NewJob("figure.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	w.Process(context.Background(), bad)
	snap := bad.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "extracting", snap.Phase)
	require.Len(t, snap.Errors, 1)

	full := NewJob("full.txt", "text/plain", []byte(paperText))
	w.Process(context.Background(), full)
	snap = full.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "storing", snap.Phase)
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 4
	return cfg
}

func waitTerminal(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	var snap JobSnapshot
	require.Eventually(t, func() bool {
		snap = job.Snapshot()
		return snap.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	ms := newMemStore()
	o := NewOrchestrator(testConfig(), ms, sections.New(sections.DefaultPolicy()), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	texts := []string{paperText, "Another Paper\nIntroduction\nHello.", "Third\nMethods\nWe did it."}
	jobs := make([]*Job, 0, len(texts))
	for i, text := range texts {
		job := NewJob("p"+string(rune('a'+i))+".txt", "text/plain", []byte(text))
		require.NoError(t, o.Submit(job))
		jobs = append(jobs, job)
	}

	for _, job := range jobs {
		snap := waitTerminal(t, job)
		assert.Equal(t, StatusCompleted, snap.Status, snap.Errors)
		assert.Same(t, job, o.GetJob(job.ID))
	}
	assert.Equal(t, 3, ms.count())
	assert.Eventually(t, func() bool { return o.Stats().Completed == 3 }, time.Second, 5*time.Millisecond)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, newMemStore(), sections.New(sections.DefaultPolicy()), discardLogger())
	// Not started: nothing drains the queue.

	require.NoError(t, o.Submit(NewJob("a.txt", "text/plain", []byte("a"))))
	overflow := NewJob("b.txt", "text/plain", []byte("b"))
	err := o.Submit(overflow)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, StatusFailed, overflow.Snapshot().Status)
	assert.Equal(t, 1, o.QueueDepth())

	o.Stop()
	assert.ErrorIs(t, o.Submit(NewJob("c.txt", "text/plain", []byte("c"))), ErrStopped)
}

func TestOrchestrator_StopFailsQueuedJobs(t *testing.T) {
	o := NewOrchestrator(testConfig(), newMemStore(), sections.New(sections.DefaultPolicy()), discardLogger())
	job := NewJob("a.txt", "text/plain", []byte("a"))
	require.NoError(t, o.Submit(job))

	o.Stop()
	o.Stop()
	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "shutdown", snap.Phase)
}
