package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/docusum/internal/doctree"
	"github.com/dgallion1/docusum/internal/export"
	"github.com/dgallion1/docusum/internal/parser"
	"github.com/dgallion1/docusum/internal/segment"
)

// ResultCache stores finished results by upload content hash. Get returns
// nil, nil on a miss.
type ResultCache interface {
	Get(hash string) (*doctree.Result, error)
	Put(hash string, res *doctree.Result) error
}

// PhaseError is a pipeline failure tagged with the phase it happened in.
type PhaseError struct {
	Phase JobStatus
	Err   error
}

func (e *PhaseError) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }

func (e *PhaseError) Unwrap() error { return e.Err }

// ErrNoText is recorded on a job when no extractor produced any text.
var ErrNoText = errors.New("no text could be extracted from the document")

// Worker processes a single document job.
type Worker struct {
	chain     *parser.Chain
	runner    *ChapterRunner
	exporter  *export.Exporter
	cache     ResultCache
	uploadDir string
	outputDir string
	log       *slog.Logger
}

func NewWorker(chain *parser.Chain, runner *ChapterRunner, exporter *export.Exporter, cache ResultCache, uploadDir, outputDir string, log *slog.Logger) *Worker {
	return &Worker{
		chain:     chain,
		runner:    runner,
		exporter:  exporter,
		cache:     cache,
		uploadDir: uploadDir,
		outputDir: outputDir,
		log:       log,
	}
}

// Process runs the full summarization pipeline for a job and records the
// outcome on it. Chapter-level failures degrade to fallback summaries and a
// document with no extractable text yields one skipped chapter; only upload
// storage errors, export errors and panics fail the job.
func (w *Worker) Process(ctx context.Context, job *Job) (res *doctree.Result, err error) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	phase := StatusExtracting

	defer func() {
		if rec := recover(); rec != nil {
			err = &PhaseError{Phase: phase, Err: fmt.Errorf("panic: %v", rec)}
			res = nil
		}
		if err != nil {
			log.Error("job failed", "phase", phase, "error", err)
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, string(phase))
		}
	}()

	// Phase 0: cache lookup by content hash.
	if cached := w.lookupCache(job, log); cached != nil {
		job.SetResult(cached)
		job.SetStatus(StatusCached, "done")
		log.Info("served from cache", "cached_doc_id", cached.DocumentID)
		return cached, nil
	}

	// Phase 1: extract
	job.SetStatus(StatusExtracting, "extracting")
	path, err := w.saveUpload(job)
	if err != nil {
		return nil, &PhaseError{Phase: phase, Err: err}
	}
	text, attempts := w.chain.Extract(ctx, path)
	for _, a := range attempts {
		if a.Err != nil {
			job.AddError(fmt.Sprintf("extractor %s: %s", a.Extractor, a.Err))
		}
	}
	if text == "" {
		// Degrades to one empty "Chapter I" that the runner skips.
		log.Warn("no text extracted, continuing with empty document", "attempts", len(attempts))
		job.AddError(ErrNoText.Error())
	} else {
		log.Info("extracted text", "chars", len(text), "attempts", len(attempts))
	}

	// Phase 2: segment
	phase = StatusSegmenting
	job.SetStatus(StatusSegmenting, "segmenting")
	doc := &doctree.Document{
		ID:       job.DocID,
		Filename: job.Filename,
		RawText:  text,
		Chapters: segment.Split(text),
	}
	job.SetDocument(doc)
	log.Info("segmented document", "chapters", len(doc.Chapters))

	// Phase 3: summarize every chapter concurrently.
	phase = StatusSummarizing
	job.SetStatus(StatusSummarizing, "summarizing")
	w.runner.SummarizeAll(ctx, doc.Chapters, job.ChapterDone)
	res = doctree.BuildResult(doc, job.ContentHash)
	log.Info("summarization complete", "progress", job.Snapshot().Progress)

	// Phase 4: export
	phase = StatusExporting
	job.SetStatus(StatusExporting, "exporting")
	arts, err := w.exporter.Export(res, w.outputDir)
	if err != nil {
		return nil, &PhaseError{Phase: phase, Err: err}
	}
	res.Artifacts = arts

	if w.cache != nil {
		if err := w.cache.Put(job.ContentHash, res); err != nil {
			log.Warn("cache write failed", "error", err)
		}
	}

	job.SetResult(res)
	job.SetStatus(StatusCompleted, "done")
	return res, nil
}

// lookupCache returns a cached result whose artifacts still exist on disk.
func (w *Worker) lookupCache(job *Job, log *slog.Logger) *doctree.Result {
	if w.cache == nil || job.ContentHash == "" {
		return nil
	}
	res, err := w.cache.Get(job.ContentHash)
	if err != nil {
		log.Warn("cache lookup failed, proceeding", "error", err)
		return nil
	}
	if res == nil || !export.Exists(w.outputDir, res.Artifacts) {
		return nil
	}
	return res
}

// saveUpload writes the upload to <uploadDir>/<docID>.pdf and frees the
// in-memory copy.
func (w *Worker) saveUpload(job *Job) (string, error) {
	if err := os.MkdirAll(w.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(w.uploadDir, job.DocID+".pdf")
	if err := os.WriteFile(path, job.FileData(), 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	job.releaseFile()
	return path, nil
}
