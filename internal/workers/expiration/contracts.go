package expiration

import "context"

// Subscriptions expires overdue subscriptions.
type Subscriptions interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}
