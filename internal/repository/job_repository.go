package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rental-marketplace/internal/scheduler"
)

// JobRepo persists scheduled jobs in the jobs table and implements
// scheduler.Store. Claiming works in two steps: a conditional UPDATE
// stamps a fresh claim token and lease expiry onto every due,
// unleased row, then the claimed rows are read back by token. A job
// whose lease has not expired is invisible to the next poll cycle, so
// a slow handler cannot be double-invoked.
type JobRepo struct{ DB *sql.DB }

func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{DB: db} }

// Create inserts a job and returns its id.
func (r *JobRepo) Create(ctx context.Context, job *scheduler.Job) (uint64, error) {
	var every sql.NullInt64
	if job.Every > 0 {
		every = sql.NullInt64{Int64: int64(job.Every / time.Second), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO jobs (name, payload, run_at, every_secs) VALUES (?,?,?,?)`,
		job.Name, job.Payload, job.RunAt.UTC(), every)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	job.ID = uint64(id)
	return job.ID, nil
}

// Claim leases up to limit due jobs and returns them.
func (r *JobRepo) Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*scheduler.Job, error) {
	token := uuid.NewString()
	until := now.Add(lease).UTC()
	_, err := r.DB.ExecContext(ctx,
		`UPDATE jobs SET claim_token = ?, leased_until = ?
		 WHERE run_at <= ? AND (leased_until IS NULL OR leased_until <= ?)
		 ORDER BY run_at LIMIT ?`,
		token, until, now.UTC(), now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, payload, run_at, every_secs, leased_until, created_at, updated_at
		 FROM jobs WHERE claim_token = ?`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*scheduler.Job
	for rows.Next() {
		var j scheduler.Job
		var every sql.NullInt64
		var leased sql.NullTime
		if err := rows.Scan(&j.ID, &j.Name, &j.Payload, &j.RunAt, &every, &leased,
			&j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if every.Valid {
			j.Every = time.Duration(every.Int64) * time.Second
		}
		if leased.Valid {
			t := leased.Time.UTC()
			j.LeasedUntil = &t
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// Reschedule moves a job's due time, stores the payload and releases
// the lease.
func (r *JobRepo) Reschedule(ctx context.Context, id uint64, runAt time.Time, payload []byte) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE jobs SET run_at = ?, payload = ?, claim_token = NULL, leased_until = NULL WHERE id = ?`,
		runAt.UTC(), payload, id)
	return err
}

// Delete removes a job.
func (r *JobRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	return err
}
