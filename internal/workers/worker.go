// Package workers runs the background reconciliation jobs: polling
// pending checkouts and expiring overdue subscriptions.
package workers

// Worker is a schedulable background job.
type Worker interface {
	Start() error

	// Stop gracefully stops the worker.
	Stop()

	// Name identifies the worker in logs.
	Name() string
}
