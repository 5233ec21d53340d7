package accounts

import "context"

type (
	// Storage provides database operations for accounts
	Storage interface {
		CreateAccount(ctx context.Context, account Account) (*Account, error)
		GetAccount(ctx context.Context, criteria GetCriteria) (*Account, error)
		UpdateAccount(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Account, error)
	}

	// Cache keeps resolved identities close to the sync endpoint. A nil
	// implementation is valid; cache failures must never fail a resolve.
	Cache interface {
		GetResolution(ctx context.Context, telegramID int64) (*Resolution, error)
		SetResolution(ctx context.Context, telegramID int64, res *Resolution) error
	}
)
