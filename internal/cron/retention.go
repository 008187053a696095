package cron

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	CartRetentionJobName   = "cart-retention"
	OutboxRetentionJobName = "outbox-retention"
)

type cartPurger interface {
	DeleteStaleRows(ctx context.Context, cutoff time.Time) (int64, error)
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type retentionJob struct {
	name   string
	window time.Duration
	purge  func(ctx context.Context, cutoff time.Time) (int64, error)
	now    func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.window)
	rows, err := j.purge(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	return rows, nil
}

// NewCartRetentionJob drops saved carts untouched for longer than window.
func NewCartRetentionJob(repo cartPurger, window time.Duration) (Job, error) {
	if repo == nil {
		return nil, errors.New("cart repository required")
	}
	if window <= 0 {
		return nil, errors.New("cart retention window must be positive")
	}
	return &retentionJob{
		name:   CartRetentionJobName,
		window: window,
		purge:  repo.DeleteStaleRows,
		now:    time.Now,
	}, nil
}

// NewOutboxRetentionJob drops outbox rows published more than window ago.
// Unpublished and dead-lettered rows are kept.
func NewOutboxRetentionJob(repo outboxPurger, window time.Duration) (Job, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	if window <= 0 {
		return nil, errors.New("outbox retention window must be positive")
	}
	return &retentionJob{
		name:   OutboxRetentionJobName,
		window: window,
		purge:  repo.DeletePublishedBefore,
		now:    time.Now,
	}, nil
}
