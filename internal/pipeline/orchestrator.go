package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studyforge/syllabd/internal/config"
	"github.com/studyforge/syllabd/internal/llm"
	"github.com/studyforge/syllabd/internal/store"
)

// Orchestrator manages the ingestion pipeline: a bounded job queue,
// a pool of workers and TTL cleanup of finished jobs.
type Orchestrator struct {
	cfg   *config.Config
	log   *slog.Logger
	jobs  *JobStore
	queue chan *Job
	store *store.Store
	llm   *llm.Client

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewOrchestrator(cfg *config.Config, st *store.Store, client *llm.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		log:   log,
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		store: st,
		llm:   client,
	}
}

// Start launches the worker pool and the cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go o.runWorker(ctx, i)
	}

	o.wg.Add(1)
	go o.runCleanup(ctx)

	// Pick up chapters whose embedding phase never finished.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		backfillEmbeddings(ctx, o.store, o.llm, o.cfg.EmbedMaxChars, o.log)
	}()

	o.log.Info("pipeline started", "workers", o.cfg.WorkerCount, "queue_size", o.cfg.MaxQueueSize)
}

// Stop cancels workers and waits for in-flight jobs to finish.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.log.Info("pipeline stopped")
}

// Submit enqueues a job. Returns an error when the queue is full.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue full")
		return fmt.Errorf("queue full (%d pending)", len(o.queue))
	}
}

// GetJob returns the job for id, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of queued jobs.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) runWorker(ctx context.Context, id int) {
	defer o.wg.Done()
	log := o.log.With("worker", id)
	w := &worker{
		cfg:   o.cfg,
		store: o.store,
		llm:   o.llm,
		log:   log,
	}
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.queue:
			w.process(ctx, job)
		}
	}
}

func (o *Orchestrator) runCleanup(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.jobs.Cleanup()
		}
	}
}
