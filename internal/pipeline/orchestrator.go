package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/mdstruct/internal/chunker"
	"github.com/dgallion1/mdstruct/internal/config"
	"github.com/dgallion1/mdstruct/internal/convert"
	"github.com/dgallion1/mdstruct/internal/doctree"
	"github.com/dgallion1/mdstruct/internal/parser"
	"github.com/dgallion1/mdstruct/internal/sink"
	"github.com/dgallion1/mdstruct/internal/store"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	conv       *convert.Converter
	flatConv   *convert.Converter
	stats      *Stats
	store      *store.Store
	sink       *sink.Client
	log        *slog.Logger
	cfg        config.Config
	chunkCfg   chunker.Config
	parseOpts  parser.Options
	deliverSem chan struct{}

	// mu guards stopped and the close of queue against concurrent Submit.
	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline is shutting down")

// NewOrchestrator creates the pipeline. sk may be nil to skip delivery.
func NewOrchestrator(cfg config.Config, st *store.Store, sk *sink.Client, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		conv:     convert.New(),
		flatConv: convert.NewFlat(),
		stats:    NewStats(cfg.StatsWindow),
		store:    st,
		sink:     sk,
		log:      log,
		cfg:      cfg,
		chunkCfg: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
			MinChunk:     10,
		},
		parseOpts:  parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		deliverSem: make(chan struct{}, max(cfg.MaxConcurrentDeliver, 1)),
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.conv, o.stats, o.store, o.sink, o.log, o.chunkCfg, o.parseOpts, o.deliverSem)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
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

// Stop gracefully shuts down the pipeline. Later calls to Submit fail
// with ErrStopped. Stop is safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutting_down")
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Convert reads and converts a document synchronously without storing it.
// flat leaves headings un-nested.
func (o *Orchestrator) Convert(filename string, data []byte, flat bool) (*doctree.Document, error) {
	src, err := Read(filename, data, o.parseOpts)
	if err != nil {
		return nil, err
	}
	conv := o.conv
	if flat {
		conv = o.flatConv
	}
	return ConvertSource(conv, o.stats, filename, "", src)
}

// DeleteDocument removes a stored document and, when delivery is on, its
// downstream copy.
func (o *Orchestrator) DeleteDocument(ctx context.Context, docID string) error {
	if err := o.store.Delete(ctx, docID); err != nil {
		return err
	}
	if o.sink != nil {
		if err := o.sink.DeleteDocument(ctx, docID); err != nil {
			o.log.Warn("renderer delete failed", "doc_id", docID, "error", err)
		}
	}
	return nil
}

// Store returns the document store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Stats returns the conversion latency tracker.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}
