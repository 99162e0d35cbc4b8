package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/mdstruct/internal/chunker"
	"github.com/dgallion1/mdstruct/internal/convert"
	"github.com/dgallion1/mdstruct/internal/doctree"
	"github.com/dgallion1/mdstruct/internal/parser"
	"github.com/dgallion1/mdstruct/internal/sink"
	"github.com/dgallion1/mdstruct/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	conv      *convert.Converter
	stats     *Stats
	store     *store.Store
	sink      *sink.Client // nil disables delivery
	log       *slog.Logger
	chunkCfg  chunker.Config
	parseOpts parser.Options

	// deliverSem bounds concurrent renderer calls across workers.
	deliverSem chan struct{}
	backoff    func(attempt int) time.Duration
}

func NewWorker(conv *convert.Converter, stats *Stats, st *store.Store, sk *sink.Client, log *slog.Logger,
	chunkCfg chunker.Config, parseOpts parser.Options, deliverSem chan struct{}) *Worker {
	if deliverSem == nil {
		deliverSem = make(chan struct{}, 1)
	}
	return &Worker{
		conv:       conv,
		stats:      stats,
		store:      st,
		sink:       sk,
		log:        log,
		chunkCfg:   chunkCfg,
		parseOpts:  parseOpts,
		deliverSem: deliverSem,
		backoff:    Backoff,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	defer job.releaseFileData()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	src, err := Read(job.Filename, job.FileData(), w.parseOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Convert
	job.SetStatus(StatusConverting, "converting")
	doc, err := ConvertSource(w.conv, w.stats, job.Filename, job.Title, src)
	if err != nil {
		var tagErr *convert.UnsupportedTagError
		if errors.As(err, &tagErr) {
			log.Warn("unsupported element", "tag", tagErr.Tag)
		} else {
			log.Error("convert failed", "error", err)
		}
		job.AddError(fmt.Sprintf("convert: %s", err))
		job.SetStatus(StatusFailed, "converting")
		return
	}

	text := strings.TrimSpace(doctree.PlainText(doc.Root))
	if text == "" {
		log.Warn("no text content")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "converting")
		return
	}
	job.SetResult(doc.Title, CountSections(doc.Root), ContentHashHex([]byte(text)))

	// Phase 2.5: Dedup check
	if existing, err := w.store.FindByHash(ctx, job.ContentHash); err == nil {
		log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
		job.MarkDuplicate(existing.ID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn("dedup check failed, proceeding", "error", err)
	}

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks := chunker.ChunkTree(doc.Root, w.chunkCfg)
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks))

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	rec := &store.Record{
		ID:          job.DocID,
		Filename:    job.Filename,
		Title:       doc.Title,
		ContentHash: job.ContentHash,
		Document:    doc,
		Chunks:      chunks,
		CreatedAt:   job.CreatedAt,
	}
	if err := w.store.Put(ctx, rec); err != nil {
		// Another job stored the same content after our dedup check.
		var dupErr *store.DuplicateError
		if errors.As(err, &dupErr) {
			log.Info("duplicate document, skipping", "existing_doc_id", dupErr.ExistingID)
			job.MarkDuplicate(dupErr.ExistingID)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	if w.sink == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 5: Deliver to the renderer.
	job.SetStatus(StatusDelivering, "delivering")
	if err := w.deliver(ctx, log, job.DocID, rec); err != nil {
		log.Error("delivery failed", "error", err)
		job.AddError(fmt.Sprintf("deliver: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.MarkDelivered()
	job.SetStatus(StatusCompleted, "done")
}

// deliver pushes a stored record downstream, retrying transient failures.
func (w *Worker) deliver(ctx context.Context, log *slog.Logger, docID string, rec *store.Record) error {
	select {
	case w.deliverSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-w.deliverSem }()

	d := sink.Delivery{
		Filename:    rec.Filename,
		Title:       rec.Title,
		ContentHash: rec.ContentHash,
		Meta:        rec.Document.Meta,
		Tree:        rec.Document.Root,
		Chunks:      rec.Chunks,
	}

	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.sink.PutDocument(ctx, docID, d)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable delivery error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
