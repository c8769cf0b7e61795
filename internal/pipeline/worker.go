package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/paperpal/internal/parser"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/dgallion1/paperpal/internal/store"
	"github.com/dgallion1/paperpal/internal/textnorm"
)

// PaperStore is the part of *store.Store the pipeline writes through.
type PaperStore interface {
	Insert(ctx context.Context, p store.Paper) (string, error)
	FindByHash(ctx context.Context, hash string) (string, bool, error)
}

// Options controls extraction and normalization for every document.
type Options struct {
	Parser parser.Options
	Text   textnorm.Options
}

// Upload is one document as received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Worker turns uploaded bytes into a stored paper.
type Worker struct {
	store PaperStore
	seg   *sections.Segmenter
	log   *slog.Logger
	opts  Options
}

func NewWorker(ps PaperStore, seg *sections.Segmenter, log *slog.Logger, opts Options) *Worker {
	return &Worker{store: ps, seg: seg, log: log, opts: opts}
}

// Analyze extracts text from an upload and segments it. Nothing is stored.
func (w *Worker) Analyze(up Upload) (sections.Analysis, error) {
	text, err := parser.Parse(up.Data, up.ContentType, up.Filename, w.opts.Parser)
	if err != nil {
		return sections.Analysis{}, err
	}
	return w.seg.Analyze(text, w.opts.Text), nil
}

// Ingest analyzes and stores an upload synchronously. Duplicates are stored
// again; only batch jobs dedupe.
func (w *Worker) Ingest(ctx context.Context, up Upload) (store.Paper, error) {
	a, err := w.Analyze(up)
	if err != nil {
		return store.Paper{}, err
	}
	return w.Save(ctx, up, a)
}

// Save stores an already analyzed upload.
func (w *Worker) Save(ctx context.Context, up Upload, a sections.Analysis) (store.Paper, error) {
	p := paperFrom(up, a, ContentHashHex(up.Data))
	id, err := w.store.Insert(ctx, p)
	if err != nil {
		return store.Paper{}, err
	}
	p.ID = id
	w.log.Info("paper stored", "doc_id", id, "filename", up.Filename, "sections", p.NumSections)
	return p, nil
}

// Process runs the batch pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.releaseFileData()

	up := Upload{Filename: job.Filename, ContentType: job.ContentType, Data: job.FileData()}
	job.ContentHash = ContentHashHex(up.Data)

	existing, found, err := w.store.FindByHash(ctx, job.ContentHash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if found {
		log.Info("duplicate paper, skipping", "existing_doc_id", existing)
		job.MarkDuplicate(existing)
		return
	}

	job.SetStatus(StatusExtracting, "extracting")
	text, err := parser.Parse(up.Data, up.ContentType, up.Filename, w.opts.Parser)
	if err != nil {
		log.Error("extract failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	job.SetStatus(StatusSegmenting, "segmenting")
	a := w.seg.Analyze(text, w.opts.Text)
	log.Info("segmented paper", "sections", len(a.Sections), "chars", a.CharCount)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	job.SetStatus(StatusStoring, "storing")
	p := paperFrom(up, a, job.ContentHash)
	id, err := w.store.Insert(ctx, p)
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetResult(id, a.PaperTitle, len(a.Sections))
	job.SetStatus(StatusCompleted, "done")
	log.Info("paper stored", "doc_id", id)
}

func paperFrom(up Upload, a sections.Analysis, hash string) store.Paper {
	return store.Paper{
		Filename:    up.Filename,
		ContentType: up.ContentType,
		SizeBytes:   int64(len(up.Data)),
		PaperTitle:  a.PaperTitle,
		CharCount:   a.CharCount,
		NumSections: len(a.Sections),
		ContentHash: hash,
		Sections:    a.Sections,
	}
}

// IsClientError reports whether err stems from the upload itself rather
// than from the server.
func IsClientError(err error) bool {
	return errors.Is(err, parser.ErrEmpty) || errors.Is(err, parser.ErrUnsupported)
}
