// Package worker is the host-facing boundary of the pipeline: a
// request/response contract over byte buffers and numeric options. Large
// payloads are moved rather than copied; the worker takes ownership of
// request bytes and the host takes ownership of result bytes.
package worker

import (
	"context"
	"fmt"
	"sync"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/pipeline"
	"photo-restorer/internal/restore"
	"photo-restorer/internal/vision"
)

// Request is one restoration job. ID is the caller's correlation identifier
// and is echoed back verbatim on both success and failure.
type Request struct {
	ID      string
	Image   []byte
	Options restore.Options
}

// Result is either a restored image or a categorized failure, never both.
type Result struct {
	ID      string
	Image   []byte
	MIME    string
	Failure *Failure
}

func (r Result) OK() bool {
	return r.Failure == nil
}

// Failure carries the error category plus a human-readable message.
type Failure struct {
	Category pipeline.ErrorCategory
	Message  string
}

// Worker serves restoration requests one at a time on its own goroutine so
// the host's primary context never blocks. Requests are isolated: a failed
// run leaves no state behind for the next one.
type Worker struct {
	log          logger.Logger
	orchestrator *pipeline.Orchestrator
	requests     chan Request
	results      chan Result
	startOnce    sync.Once
}

func New(log logger.Logger, queueDepth int) *Worker {
	if queueDepth < 1 {
		queueDepth = 1
	}

	return &Worker{
		log:          log,
		orchestrator: pipeline.NewOrchestrator(log),
		requests:     make(chan Request, queueDepth),
		results:      make(chan Result, queueDepth),
	}
}

// Start launches the serving goroutine. Idempotent; ctx ends the loop. The
// Ready channel closes once the vision runtime finished its one-time
// initialization; until then submitted requests stay queued.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.serve(ctx)
	})
}

func (w *Worker) serve(ctx context.Context) {
	defer close(w.results)

	if err := vision.EnsureInit(w.log); err != nil {
		// Requests are still consumed; each gets a runtime failure.
		w.log.Error("Worker", err, map[string]interface{}{
			"phase": "init",
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			result := w.Process(req)
			select {
			case w.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Ready closes once the backing runtime is initialized. It never closes if
// initialization failed.
func (w *Worker) Ready() <-chan struct{} {
	return vision.Ready()
}

// Submit queues a request. It blocks only when the queue is full.
func (w *Worker) Submit(ctx context.Context, req Request) error {
	select {
	case w.requests <- req:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %q: %w", req.ID, ctx.Err())
	}
}

// Results delivers one Result per submitted request, in processing order.
// The channel closes when the worker stops.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Process runs one request synchronously. Safe for concurrent callers; each
// invocation gets isolated buffers.
func (w *Worker) Process(req Request) Result {
	image, mime, err := w.orchestrator.Run(req.Image, req.Options)
	if err != nil {
		w.log.Error("Worker", err, map[string]interface{}{
			"request_id": req.ID,
		})
		return Result{
			ID: req.ID,
			Failure: &Failure{
				Category: pipeline.CategoryOf(err),
				Message:  err.Error(),
			},
		}
	}

	return Result{ID: req.ID, Image: image, MIME: mime}
}
