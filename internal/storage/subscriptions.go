package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"signalmarket/internal/stories/subs"
)

const subscriptionsTable = "subscriptions"

var subscriptionRowFields = fields(subscriptionRow{})

type subscriptionRow struct {
	ID         string         `db:"id"`
	AccountID  string         `db:"account_id"`
	MerchantID string         `db:"merchant_id"`
	ServiceID  string         `db:"service_id"`
	TierID     string         `db:"tier_id"`
	CheckoutID sql.NullString `db:"checkout_id"`
	Status     string         `db:"status"`
	ExpiresAt  sql.NullTime   `db:"expires_at"`
	InviteLink sql.NullString `db:"invite_link"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r subscriptionRow) ToModel() *subs.Subscription {
	sub := &subs.Subscription{
		ID:         r.ID,
		AccountID:  r.AccountID,
		MerchantID: r.MerchantID,
		ServiceID:  r.ServiceID,
		TierID:     r.TierID,
		Status:     subs.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.CheckoutID.Valid {
		sub.CheckoutID = &r.CheckoutID.String
	}
	if r.ExpiresAt.Valid {
		sub.ExpiresAt = &r.ExpiresAt.Time
	}
	if r.InviteLink.Valid {
		sub.InviteLink = &r.InviteLink.String
	}
	return sub
}

func (s *storageImpl) CreateSubscription(ctx context.Context, sub subs.Subscription) (*subs.Subscription, error) {
	params := map[string]interface{}{
		"id":          sub.ID,
		"account_id":  sub.AccountID,
		"merchant_id": sub.MerchantID,
		"service_id":  sub.ServiceID,
		"tier_id":     sub.TierID,
		"status":      string(sub.Status),
		"created_at":  s.now(),
		"updated_at":  s.now(),
	}
	if sub.CheckoutID != nil {
		params["checkout_id"] = *sub.CheckoutID
	}
	if sub.ExpiresAt != nil {
		params["expires_at"] = *sub.ExpiresAt
	}
	if sub.InviteLink != nil {
		params["invite_link"] = *sub.InviteLink
	}

	q, args, err := s.stmtBuilder().
		Insert(subscriptionsTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetSubscription(ctx, subs.GetCriteria{ID: &sub.ID})
}

func (s *storageImpl) GetSubscription(ctx context.Context, criteria subs.GetCriteria) (*subs.Subscription, error) {
	query := s.stmtBuilder().
		Select(subscriptionRowFields).
		From(subscriptionsTable).
		Limit(1)

	query = applySubscriptionCriteria(query, criteria)

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var r subscriptionRow
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&r.ID, &r.AccountID, &r.MerchantID, &r.ServiceID, &r.TierID,
		&r.CheckoutID, &r.Status, &r.ExpiresAt, &r.InviteLink,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return r.ToModel(), nil
}

func (s *storageImpl) ListSubscriptions(ctx context.Context, criteria subs.ListCriteria) ([]*subs.Subscription, error) {
	query := s.stmtBuilder().
		Select(subscriptionRowFields).
		From(subscriptionsTable)

	if criteria.AccountID != nil {
		query = query.Where(sq.Eq{"account_id": *criteria.AccountID})
	}
	if criteria.Status != nil {
		query = query.Where(sq.Eq{"status": string(*criteria.Status)})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("created_at DESC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.QueryContext: %w", err)
	}
	defer rows.Close()

	var result []*subs.Subscription
	for rows.Next() {
		var r subscriptionRow
		err = rows.Scan(
			&r.ID, &r.AccountID, &r.MerchantID, &r.ServiceID, &r.TierID,
			&r.CheckoutID, &r.Status, &r.ExpiresAt, &r.InviteLink,
			&r.CreatedAt, &r.UpdatedAt,
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

func (s *storageImpl) UpdateSubscription(ctx context.Context, criteria subs.GetCriteria, params subs.UpdateParams) (*subs.Subscription, error) {
	query := s.stmtBuilder().
		Update(subscriptionsTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.CheckoutID != nil {
		query = query.Where(sq.Eq{"checkout_id": *criteria.CheckoutID})
	}

	if params.Status != nil {
		query = query.Set("status", string(*params.Status))
	}
	if params.ExpiresAt != nil {
		query = query.Set("expires_at", *params.ExpiresAt)
	}
	if params.InviteLink != nil {
		query = query.Set("invite_link", *params.InviteLink)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetSubscription(ctx, criteria)
}

// ExpireOverdueSubscriptions flips ACTIVE rows past expires_at to EXPIRED.
func (s *storageImpl) ExpireOverdueSubscriptions(ctx context.Context) (int64, error) {
	q, args, err := s.stmtBuilder().
		Update(subscriptionsTable).
		Set("status", string(subs.StatusExpired)).
		Set("updated_at", s.now()).
		Where(sq.Eq{"status": string(subs.StatusActive)}).
		Where(sq.Lt{"expires_at": s.now()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("db.ExecContext: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("result.RowsAffected: %w", err)
	}
	return n, nil
}

func applySubscriptionCriteria(query sq.SelectBuilder, criteria subs.GetCriteria) sq.SelectBuilder {
	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.AccountID != nil {
		query = query.Where(sq.Eq{"account_id": *criteria.AccountID})
	}
	if criteria.CheckoutID != nil {
		query = query.Where(sq.Eq{"checkout_id": *criteria.CheckoutID})
	}
	if criteria.Status != nil {
		query = query.Where(sq.Eq{"status": string(*criteria.Status)})
	}
	return query
}
