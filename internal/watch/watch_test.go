package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/paperpal/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu   sync.Mutex
	jobs []*pipeline.Job
}

func (r *recorder) Submit(job *pipeline.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Filename)
	}
	return out
}

func startWatcher(t *testing.T, dir string, sub Submitter, maxBytes int64) {
	t.Helper()
	w, err := New(dir, sub, slog.New(slog.NewTextHandler(io.Discard, nil)), maxBytes)
	require.NoError(t, err)
	w.Settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestWatcher_SubmitsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec, 1024)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.txt"), []byte("Title\nAbstract\nText."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "figure.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644))

	require.Eventually(t, func() bool { return len(rec.names()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"paper.txt"}, rec.names())

	rec.mu.Lock()
	job := rec.jobs[0]
	rec.mu.Unlock()
	assert.Equal(t, []byte("Title\nAbstract\nText."), job.FileData())
	assert.Equal(t, pipeline.StatusQueued, job.Snapshot().Status)
}

func TestWatcher_SkipsEmptyAndOversized(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec, 8)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.md"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.txt"), []byte("far more than eight bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("Abstract"), 0o644))

	require.Eventually(t, func() bool { return len(rec.names()) == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"ok.txt"}, rec.names())
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), &recorder{}, slog.Default(), 0)
	assert.Error(t, err)
}
