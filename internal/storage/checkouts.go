package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"signalmarket/internal/stories/billing"
)

const checkoutsTable = "checkouts"

var checkoutRowFields = fields(checkoutRow{})

type checkoutRow struct {
	ID                string         `db:"id"`
	MerchantID        string         `db:"merchant_id"`
	ServiceID         string         `db:"service_id"`
	TierID            string         `db:"tier_id"`
	AccountID         sql.NullString `db:"account_id"`
	Status            string         `db:"status"`
	Provider          string         `db:"provider"`
	ProviderPaymentID sql.NullString `db:"provider_payment_id"`
	InvoiceURL        sql.NullString `db:"invoice_url"`
	ProcessedAt       sql.NullTime   `db:"processed_at"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r checkoutRow) ToModel() *billing.Checkout {
	checkout := &billing.Checkout{
		ID:         r.ID,
		MerchantID: r.MerchantID,
		ServiceID:  r.ServiceID,
		TierID:     r.TierID,
		Status:     billing.Status(r.Status),
		Provider:   billing.Provider(r.Provider),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.AccountID.Valid {
		checkout.AccountID = &r.AccountID.String
	}
	if r.ProviderPaymentID.Valid {
		checkout.ProviderPaymentID = &r.ProviderPaymentID.String
	}
	if r.InvoiceURL.Valid {
		checkout.InvoiceURL = &r.InvoiceURL.String
	}
	if r.ProcessedAt.Valid {
		checkout.ProcessedAt = &r.ProcessedAt.Time
	}
	return checkout
}

func (s *storageImpl) CreateCheckout(ctx context.Context, checkout billing.Checkout) (*billing.Checkout, error) {
	params := map[string]interface{}{
		"id":          checkout.ID,
		"merchant_id": checkout.MerchantID,
		"service_id":  checkout.ServiceID,
		"tier_id":     checkout.TierID,
		"status":      string(checkout.Status),
		"provider":    string(checkout.Provider),
		"created_at":  s.now(),
		"updated_at":  s.now(),
	}
	if checkout.AccountID != nil {
		params["account_id"] = *checkout.AccountID
	}

	q, args, err := s.stmtBuilder().
		Insert(checkoutsTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetCheckout(ctx, billing.GetCriteria{ID: &checkout.ID})
}

func (s *storageImpl) GetCheckout(ctx context.Context, criteria billing.GetCriteria) (*billing.Checkout, error) {
	query := s.stmtBuilder().
		Select(checkoutRowFields).
		From(checkoutsTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.ProviderPaymentID != nil {
		query = query.Where(sq.Eq{"provider_payment_id": *criteria.ProviderPaymentID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var r checkoutRow
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&r.ID, &r.MerchantID, &r.ServiceID, &r.TierID, &r.AccountID,
		&r.Status, &r.Provider, &r.ProviderPaymentID, &r.InvoiceURL,
		&r.ProcessedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return r.ToModel(), nil
}

func (s *storageImpl) UpdateCheckout(ctx context.Context, criteria billing.GetCriteria, params billing.UpdateParams) (*billing.Checkout, error) {
	query := s.stmtBuilder().
		Update(checkoutsTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.ProviderPaymentID != nil {
		query = query.Where(sq.Eq{"provider_payment_id": *criteria.ProviderPaymentID})
	}

	if params.Status != nil {
		query = query.Set("status", string(*params.Status))
	}
	if params.Provider != nil {
		query = query.Set("provider", string(*params.Provider))
	}
	if params.ProviderPaymentID != nil {
		query = query.Set("provider_payment_id", *params.ProviderPaymentID)
	}
	if params.InvoiceURL != nil {
		query = query.Set("invoice_url", *params.InvoiceURL)
	}
	if params.ProcessedAt != nil {
		query = query.Set("processed_at", *params.ProcessedAt)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetCheckout(ctx, criteria)
}

func (s *storageImpl) ListCheckouts(ctx context.Context, criteria billing.ListCriteria) ([]*billing.Checkout, error) {
	query := s.stmtBuilder().
		Select(checkoutRowFields).
		From(checkoutsTable)

	if criteria.Status != nil {
		query = query.Where(sq.Eq{"status": string(*criteria.Status)})
	}
	if criteria.Provider != nil {
		query = query.Where(sq.Eq{"provider": string(*criteria.Provider)})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("created_at ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.QueryContext: %w", err)
	}
	defer rows.Close()

	var result []*billing.Checkout
	for rows.Next() {
		var r checkoutRow
		err = rows.Scan(
			&r.ID, &r.MerchantID, &r.ServiceID, &r.TierID, &r.AccountID,
			&r.Status, &r.Provider, &r.ProviderPaymentID, &r.InvoiceURL,
			&r.ProcessedAt, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		result = append(result, r.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return result, nil
}
