package worker

import (
	"context"
	"time"

	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Queue is the matching-queue surface the worker drives.
// *store.Store implements it.
type Queue interface {
	GetOldestPendingJob(ctx context.Context) (*models.MatchingJob, error)
	UpdateJobStatus(ctx context.Context, purchaseID int64, status models.JobStatus) error
	UpdateJobProcessed(ctx context.Context, purchaseID int64, processed int) error
	DeleteJob(ctx context.Context, purchaseID int64) error
}

// PurchaseSource loads the purchase a job refers to.
type PurchaseSource interface {
	GetPurchaseByID(ctx context.Context, id int64) (*models.Purchase, error)
}

// Reconciler is the engine the worker drives each job through.
// *service.Reconciler implements it.
type Reconciler interface {
	ReconcileLineItem(ctx context.Context, purchase *models.Purchase, line *models.PurchaseItem) (*models.Item, error)
}

// JobEvents publishes job terminal-state events.
type JobEvents interface {
	PublishMatchingCompleted(ctx context.Context, event *models.MatchingCompletedEvent) error
	PublishMatchingFailed(ctx context.Context, event *models.MatchingFailedEvent) error
}

// MatchWorker polls the matching queue and drives pending jobs through the
// reconciler. It advances at most one job per tick and never runs two jobs
// concurrently, which bounds write contention on the item ledger.
type MatchWorker struct {
	queue      Queue
	purchases  PurchaseSource
	reconciler Reconciler
	events     JobEvents
	interval   time.Duration
	logger     *zap.Logger
}

// NewMatchWorker creates a new matching worker
func NewMatchWorker(queue Queue, purchases PurchaseSource, reconciler Reconciler, events JobEvents, interval time.Duration) *MatchWorker {
	return &MatchWorker{
		queue:      queue,
		purchases:  purchases,
		reconciler: reconciler,
		events:     events,
		interval:   interval,
		logger:     util.GetLogger(),
	}
}

// Start runs the polling loop until the context is cancelled
func (w *MatchWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting match worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Match worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.logger.Error("Match worker tick failed", zap.Error(err))
			}
		}
	}
}

// Tick claims and processes at most one pending job. A drained queue is a
// no-op. Job-level failures are absorbed into the job's error status; only
// queue access problems surface as errors.
func (w *MatchWorker) Tick(ctx context.Context) error {
	job, err := w.queue.GetOldestPendingJob(ctx)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	if err := w.queue.UpdateJobStatus(ctx, job.PurchaseID, models.JobStatusProcessing); err != nil {
		return err
	}

	purchase, err := w.purchases.GetPurchaseByID(ctx, job.PurchaseID)
	if err != nil {
		w.failJob(ctx, job, 0, err)
		return nil
	}
	if purchase == nil {
		// The purchase vanished between enqueue and claim. Nothing to
		// reconcile; dropping the job keeps the queue from re-picking
		// it forever.
		w.logger.Warn("Dropping job for missing purchase", zap.Int64("purchase_id", job.PurchaseID))
		return w.queue.DeleteJob(ctx, job.PurchaseID)
	}

	w.logger.Info("Processing matching job",
		zap.Int64("purchase_id", job.PurchaseID),
		zap.Int("total_items", len(purchase.Items)))

	start := time.Now()
	for i := range purchase.Items {
		if _, err := w.reconciler.ReconcileLineItem(ctx, purchase, &purchase.Items[i]); err != nil {
			w.failJob(ctx, job, i, err)
			return nil
		}
		if err := w.queue.UpdateJobProcessed(ctx, job.PurchaseID, i+1); err != nil {
			w.failJob(ctx, job, i+1, err)
			return nil
		}
	}

	if err := w.queue.UpdateJobStatus(ctx, job.PurchaseID, models.JobStatusDone); err != nil {
		return err
	}

	util.MatchingJobsTotal.WithLabelValues(string(models.JobStatusDone)).Inc()
	util.MatchingJobDuration.Observe(time.Since(start).Seconds())
	w.logger.Info("Matching job done",
		zap.Int64("purchase_id", job.PurchaseID),
		zap.Int("processed", len(purchase.Items)))

	event := &models.MatchingCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeMatchingCompleted),
		PurchaseID: job.PurchaseID,
		Processed:  len(purchase.Items),
	}
	if err := w.events.PublishMatchingCompleted(ctx, event); err != nil {
		w.logger.Error("Failed to publish MatchingCompleted event", zap.Error(err))
	}

	return nil
}

// failJob marks a job as errored. Line items reconciled before the failure
// stay attributed; processed reflects how far the job got.
func (w *MatchWorker) failJob(ctx context.Context, job *models.MatchingJob, processed int, cause error) {
	w.logger.Error("Matching job failed",
		zap.Int64("purchase_id", job.PurchaseID),
		zap.Int("processed", processed),
		zap.Error(cause))

	if err := w.queue.UpdateJobStatus(ctx, job.PurchaseID, models.JobStatusError); err != nil {
		w.logger.Error("Failed to mark job as errored",
			zap.Int64("purchase_id", job.PurchaseID),
			zap.Error(err))
	}
	util.MatchingJobsTotal.WithLabelValues(string(models.JobStatusError)).Inc()

	event := &models.MatchingFailedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeMatchingFailed),
		PurchaseID: job.PurchaseID,
		Processed:  processed,
		Reason:     cause.Error(),
	}
	if err := w.events.PublishMatchingFailed(ctx, event); err != nil {
		w.logger.Error("Failed to publish MatchingFailed event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
