// Package expiration flips ACTIVE subscriptions past their expires_at to
// EXPIRED on a schedule.
package expiration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Worker struct {
	subs   Subscriptions
	logger *slog.Logger
	cron   *cron.Cron
	spec   string
}

func NewWorker(subs Subscriptions, spec string, logger *slog.Logger) *Worker {
	return &Worker{
		subs:   subs,
		logger: logger,
		cron:   cron.New(),
		spec:   spec,
	}
}

func (w *Worker) Name() string {
	return "subscription-expiration"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.spec, func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("panic in expiration worker", "panic", r)
			}
		}()

		expired, err := w.subs.ExpireOverdue(context.Background())
		if err != nil {
			w.logger.Error("expiration run failed", "error", err)
			return
		}
		if expired > 0 {
			w.logger.Info("expired overdue subscriptions", "count", expired)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule expiration worker: %w", err)
	}

	w.cron.Start()
	w.logger.Info("expiration worker started", "spec", w.spec)
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
}
