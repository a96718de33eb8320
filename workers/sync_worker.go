package workers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/models"
)

// Syncer is the part of the catalog writer the sync workers drive.
type Syncer interface {
	AddMedia(ctx context.Context, items []catalog.MediaItem, authority string) (int, error)
	RemoveMedia(ctx context.Context, ids []string, version *int64, authority string) (int, error)
	ResetMedia(ctx context.Context, authority string) (int, error)
}

// ErrStopped is reported to jobs still queued when the processor stops.
var ErrStopped = errors.New("sync processor stopped")

// SyncResult is the outcome of one applied batch.
type SyncResult struct {
	JobID   string
	Applied int
	Err     error
}

type SyncJob struct {
	ID        string
	Operation string
	Authority string
	Items     []catalog.MediaItem
	IDs       []string
	Version   *int64

	// Done receives exactly one result when set. It must be buffered or drained.
	Done chan SyncResult
}

// NewSyncJob returns a job with a fresh id and a buffered Done channel.
func NewSyncJob(op, authority string) SyncJob {
	return SyncJob{
		ID:        uuid.NewString(),
		Operation: op,
		Authority: authority,
		Done:      make(chan SyncResult, 1),
	}
}

// pendingKey collapses duplicate resets of one authority; batches are always distinct.
func (j SyncJob) pendingKey() string {
	if j.Operation == models.SyncOpReset {
		return fmt.Sprintf("%s:%s", j.Authority, j.Operation)
	}
	return j.ID
}

// SyncProcessor applies sync jobs on a fixed set of workers. Each authority is bound to
// one worker lane, so batches of one authority are applied in the order they were queued.
type SyncProcessor struct {
	Lanes    []chan SyncJob
	Syncer   Syncer
	Log      logrus.FieldLogger
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Pending  map[string]bool
	Mutex    sync.Mutex
	stopped  bool
}

func NewSyncProcessor(syncer Syncer, log logrus.FieldLogger, queueSize, numWorkers int) *SyncProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	proc := &SyncProcessor{
		Lanes:    make([]chan SyncJob, numWorkers),
		Syncer:   syncer,
		Log:      log,
		StopChan: make(chan struct{}),
		Pending:  make(map[string]bool),
	}
	proc.Wg.Add(numWorkers)
	for i := range proc.Lanes {
		proc.Lanes[i] = make(chan SyncJob, queueSize)
		go proc.worker(i)
	}
	log.WithFields(logrus.Fields{"workers": numWorkers, "queue_size": queueSize}).Info("workers: started sync workers")
	return proc
}

// lane picks the queue of authority.
func (sp *SyncProcessor) lane(authority string) chan SyncJob {
	if len(sp.Lanes) == 1 {
		return sp.Lanes[0]
	}
	h := fnv.New32a()
	h.Write([]byte(authority))
	return sp.Lanes[h.Sum32()%uint32(len(sp.Lanes))]
}

// Queued returns the number of jobs waiting for a worker.
func (sp *SyncProcessor) Queued() int {
	n := 0
	for _, l := range sp.Lanes {
		n += len(l)
	}
	return n
}

func (sp *SyncProcessor) worker(id int) {
	defer sp.Wg.Done()

	queue := sp.Lanes[id]
	log := sp.Log.WithField("worker", id)
	log.Debug("workers: sync worker started")
	for {
		select {
		case <-sp.StopChan:
			log.Debug("workers: sync worker stopping, stop signal received")
			return
		default:
		}

		select {
		case job := <-queue:
			sp.process(log, job)
		case <-sp.StopChan:
			log.Debug("workers: sync worker stopping, stop signal received")
			return
		}
	}
}

func (sp *SyncProcessor) process(log logrus.FieldLogger, job SyncJob) {
	ctx := context.Background()
	result := SyncResult{JobID: job.ID}

	switch job.Operation {
	case models.SyncOpAdd:
		result.Applied, result.Err = sp.Syncer.AddMedia(ctx, job.Items, job.Authority)
	case models.SyncOpRemove:
		result.Applied, result.Err = sp.Syncer.RemoveMedia(ctx, job.IDs, job.Version, job.Authority)
	case models.SyncOpReset:
		result.Applied, result.Err = sp.Syncer.ResetMedia(ctx, job.Authority)
	default:
		result.Err = fmt.Errorf("unknown sync operation %q", job.Operation)
	}

	fields := logrus.Fields{"job": job.ID, "op": job.Operation, "authority": job.Authority}
	if result.Err != nil {
		log.WithFields(fields).WithError(result.Err).Warn("workers: sync job failed")
	} else {
		log.WithFields(fields).WithField("applied", result.Applied).Debug("workers: sync job done")
	}

	sp.finish(job, result)
}

func (sp *SyncProcessor) finish(job SyncJob, result SyncResult) {
	sp.Mutex.Lock()
	delete(sp.Pending, job.pendingKey())
	sp.Mutex.Unlock()

	if job.Done != nil {
		job.Done <- result
	}
}

// QueueJob queues a job unless the processor stopped, an equivalent job is pending, or
// the authority's lane is full.
func (sp *SyncProcessor) QueueJob(job SyncJob) bool {
	pendingKey := job.pendingKey()

	sp.Mutex.Lock()
	defer sp.Mutex.Unlock()
	if sp.stopped || sp.Pending[pendingKey] {
		return false
	}

	select {
	case sp.lane(job.Authority) <- job:
		sp.Pending[pendingKey] = true
		sp.Log.WithFields(logrus.Fields{"job": job.ID, "op": job.Operation, "authority": job.Authority}).
			Debug("workers: queued sync job")
		return true
	default:
		sp.Log.WithFields(logrus.Fields{"op": job.Operation, "authority": job.Authority}).
			Warn("workers: sync job queue full")
		return false
	}
}

// Wait blocks until job reports its result or ctx ends.
func Wait(ctx context.Context, job SyncJob) (SyncResult, error) {
	select {
	case res := <-job.Done:
		return res, nil
	case <-ctx.Done():
		return SyncResult{JobID: job.ID}, ctx.Err()
	}
}

// Stop waits for the running jobs and fails the queued ones with ErrStopped.
func (sp *SyncProcessor) Stop() {
	sp.Log.Info("workers: stopping sync workers")
	sp.Mutex.Lock()
	sp.stopped = true
	sp.Mutex.Unlock()

	close(sp.StopChan)
	sp.Wg.Wait()

	dropped := 0
	for _, queue := range sp.Lanes {
		for len(queue) > 0 {
			job := <-queue
			sp.finish(job, SyncResult{JobID: job.ID, Err: ErrStopped})
			dropped++
		}
	}
	sp.Log.WithField("dropped", dropped).Info("workers: all sync workers stopped")
}
