package store

import (
	"context"
	"database/sql"

	"purchase-service/internal/models"
)

// UpsertJob enqueues a matching job for a purchase, replacing any existing
// job for that purchase id. The replacement resets processed to zero and the
// status to pending; re-enqueue after an edit is a full reset, not a resume.
func (s *Store) UpsertJob(ctx context.Context, purchaseID int64, totalItems int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matching_jobs (purchase_id, total_items, processed, status, enqueued_at, updated_at)
		VALUES ($1, $2, 0, $3, NOW(), NOW())
		ON CONFLICT (purchase_id) DO UPDATE
		SET total_items = EXCLUDED.total_items,
		    processed = 0,
		    status = EXCLUDED.status,
		    enqueued_at = NOW(),
		    updated_at = NOW()`,
		purchaseID, totalItems, models.JobStatusPending)
	return err
}

// GetOldestPendingJob retrieves the pending job that has waited longest.
// Returns (nil, nil) when the queue is drained. Ordering by enqueue time
// then purchase id keeps selection deterministic.
func (s *Store) GetOldestPendingJob(ctx context.Context) (*models.MatchingJob, error) {
	var job models.MatchingJob
	err := s.db.GetContext(ctx, &job, `
		SELECT * FROM matching_jobs
		WHERE status = $1
		ORDER BY enqueued_at, purchase_id
		LIMIT 1`,
		models.JobStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobByPurchaseID retrieves the job for a purchase, (nil, nil) when none
func (s *Store) GetJobByPurchaseID(ctx context.Context, purchaseID int64) (*models.MatchingJob, error) {
	var job models.MatchingJob
	err := s.db.GetContext(ctx, &job,
		"SELECT * FROM matching_jobs WHERE purchase_id = $1", purchaseID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJobStatus updates a job's state-machine status
func (s *Store) UpdateJobStatus(ctx context.Context, purchaseID int64, status models.JobStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE matching_jobs SET status = $1, updated_at = NOW() WHERE purchase_id = $2",
		status, purchaseID)
	return err
}

// UpdateJobProcessed updates a job's processed counter
func (s *Store) UpdateJobProcessed(ctx context.Context, purchaseID int64, processed int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE matching_jobs SET processed = $1, updated_at = NOW() WHERE purchase_id = $2",
		processed, purchaseID)
	return err
}

// DeleteJob removes a purchase's job outright
func (s *Store) DeleteJob(ctx context.Context, purchaseID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM matching_jobs WHERE purchase_id = $1", purchaseID)
	return err
}
