package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"

	"signalmarket/internal/stories/accounts"
)

const accountsTable = "accounts"

var accountRowFields = fields(accountRow{})

type accountRow struct {
	ID           string    `db:"id"`
	TelegramID   int64     `db:"telegram_id"`
	Role         string    `db:"role"`
	DisplayName  string    `db:"display_name"`
	LanguageCode string    `db:"language_code"`
	IsPremium    bool      `db:"is_premium"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (a accountRow) ToModel() *accounts.Account {
	return &accounts.Account{
		ID:           a.ID,
		TelegramID:   a.TelegramID,
		Role:         accounts.Role(a.Role),
		DisplayName:  a.DisplayName,
		LanguageCode: a.LanguageCode,
		IsPremium:    a.IsPremium,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (s *storageImpl) CreateAccount(ctx context.Context, account accounts.Account) (*accounts.Account, error) {
	params := map[string]interface{}{
		"id":            account.ID,
		"telegram_id":   account.TelegramID,
		"role":          string(account.Role),
		"display_name":  account.DisplayName,
		"language_code": account.LanguageCode,
		"is_premium":    account.IsPremium,
		"created_at":    s.now(),
		"updated_at":    s.now(),
	}

	q, args, err := s.stmtBuilder().
		Insert(accountsTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		// The resolver treats a telegram_id collision as "lost the
		// first-contact race", not as a failure.
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, accounts.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetAccount(ctx, accounts.GetCriteria{ID: &account.ID})
}

func (s *storageImpl) GetAccount(ctx context.Context, criteria accounts.GetCriteria) (*accounts.Account, error) {
	query := s.stmtBuilder().
		Select(accountRowFields).
		From(accountsTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.TelegramID != nil {
		query = query.Where(sq.Eq{"telegram_id": *criteria.TelegramID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var a accountRow
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&a.ID, &a.TelegramID, &a.Role, &a.DisplayName,
		&a.LanguageCode, &a.IsPremium, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return a.ToModel(), nil
}

func (s *storageImpl) UpdateAccount(ctx context.Context, criteria accounts.GetCriteria, params accounts.UpdateParams) (*accounts.Account, error) {
	query := s.stmtBuilder().
		Update(accountsTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.TelegramID != nil {
		query = query.Where(sq.Eq{"telegram_id": *criteria.TelegramID})
	}

	if params.Role != nil {
		query = query.Set("role", string(*params.Role))
	}
	if params.DisplayName != nil {
		query = query.Set("display_name", *params.DisplayName)
	}
	if params.LanguageCode != nil {
		query = query.Set("language_code", *params.LanguageCode)
	}
	if params.IsPremium != nil {
		query = query.Set("is_premium", *params.IsPremium)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetAccount(ctx, criteria)
}
