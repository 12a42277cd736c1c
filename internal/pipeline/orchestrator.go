package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docusum/internal/cleanup"
	"github.com/dgallion1/docusum/internal/config"
	"github.com/dgallion1/docusum/internal/doctree"
	"github.com/dgallion1/docusum/internal/export"
	"github.com/dgallion1/docusum/internal/llm"
	"github.com/dgallion1/docusum/internal/parser"
	"github.com/dgallion1/docusum/internal/textclean"
)

// Orchestrator manages the document summarization pipeline: one gate shared
// by every job, a bounded queue for async jobs and a job registry.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	gate   *Gate
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the extraction chain, chapter runner, cleanup and
// export for cfg around client. Chapter outcomes are recorded in the client's
// stats next to its call latencies.
func NewOrchestrator(cfg config.Config, client llm.Client, rules *textclean.Ruleset, cache ResultCache, log *slog.Logger) *Orchestrator {
	if rules == nil {
		rules = textclean.Default()
	}
	gate := NewGate(cfg.MaxConcurrency)

	clean := cleanup.New(rules, cfg.MinSentenceChars, log)
	if cfg.SmoothingEnabled {
		clean = clean.WithSmoother(&GateSmoother{Client: client, Gate: gate, Timeout: cfg.CallTimeout}, cfg.MinSummaryChars)
	}
	runner := NewChapterRunner(client, gate, clean, rules, RunnerConfigFrom(cfg), log)
	runner.stats = client.LatencyStats()
	worker := NewWorker(NewChain(cfg, rules, log), runner, export.New(), cache, cfg.UploadDir(), cfg.OutputDir(), log)
	return newOrchestrator(cfg, worker, gate, log)
}

func newOrchestrator(cfg config.Config, worker *Worker, gate *Gate, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: worker,
		gate:   gate,
		log:    log,
		cfg:    cfg,
	}
}

// NewChain builds the extraction chain in priority order: MuPDF text layer,
// pdfcpu content streams, the pure-Go reader with pdftotext, then OCR.
func NewChain(cfg config.Config, rules *textclean.Ruleset, log *slog.Logger) *parser.Chain {
	extractors := []parser.Extractor{
		parser.FitzExtractor{},
		parser.PDFCPUExtractor{},
		&parser.BasicExtractor{FallbackPdftotext: cfg.PDFFallbackPdftotext},
	}
	if cfg.OCREnabled {
		extractors = append(extractors, &parser.OCRExtractor{
			Command:  cfg.TesseractCmd,
			Language: cfg.OCRLanguage,
			DPI:      cfg.OCRDPI,
		})
	}
	return &parser.Chain{
		Extractors: extractors,
		MinChars:   cfg.MinExtractedChars,
		Clean:      rules.Normalize,
		Log:        log,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Run processes job on the caller's goroutine. The job is registered so its
// progress can be polled while it runs.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (*doctree.Result, error) {
	o.jobs.Put(job)
	return o.worker.Process(ctx, job)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// GateStats reports usage of the shared remote-call gate.
func (o *Orchestrator) GateStats() GateStats {
	return o.gate.Stats()
}

// OutputDir is where exported artifacts are written.
func (o *Orchestrator) OutputDir() string {
	return o.worker.outputDir
}
