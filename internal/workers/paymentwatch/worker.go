// Package paymentwatch polls the payment provider for pending checkouts.
// The Mini-App never trusts the host's payment verdict, so this poller is
// what actually flips checkouts to approved and activates subscriptions.
package paymentwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

type Worker struct {
	billing Billing
	logger  *slog.Logger
	cron    *cron.Cron
	spec    string

	// guards against overlapping runs when a poll outlives the interval
	inFlight atomic.Bool
}

func NewWorker(billing Billing, spec string, logger *slog.Logger) *Worker {
	return &Worker{
		billing: billing,
		logger:  logger,
		cron:    cron.New(),
		spec:    spec,
	}
}

func (w *Worker) Name() string {
	return "payment-watch"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.spec, func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("panic in payment watch worker", "panic", r)
			}
		}()

		if !w.inFlight.CompareAndSwap(false, true) {
			w.logger.Debug("payment watch run still in progress, skipping")
			return
		}
		defer w.inFlight.Store(false)

		if err := w.billing.CheckPending(context.Background()); err != nil {
			w.logger.Error("payment watch run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule payment watch worker: %w", err)
	}

	w.cron.Start()
	w.logger.Info("payment watch worker started", "spec", w.spec)
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
}
