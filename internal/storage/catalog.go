package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"signalmarket/internal/stories/catalog"
)

const (
	servicesTable = "merchant_services"
	tiersTable    = "tiers"
)

var (
	serviceRowFields = fields(serviceRow{})
	tierRowFields    = fields(tierRow{})
)

type serviceRow struct {
	ID          string    `db:"id"`
	MerchantID  string    `db:"merchant_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r serviceRow) ToModel() *catalog.Service {
	return &catalog.Service{
		ID:          r.ID,
		MerchantID:  r.MerchantID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type tierRow struct {
	ID           string    `db:"id"`
	ServiceID    string    `db:"service_id"`
	Name         string    `db:"name"`
	Price        float64   `db:"price"`
	Currency     string    `db:"currency"`
	DurationDays int       `db:"duration_days"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r tierRow) ToModel() *catalog.Tier {
	return &catalog.Tier{
		ID:           r.ID,
		ServiceID:    r.ServiceID,
		Name:         r.Name,
		Price:        r.Price,
		Currency:     r.Currency,
		DurationDays: r.DurationDays,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (s *storageImpl) GetService(ctx context.Context, criteria catalog.ServiceGetCriteria) (*catalog.Service, error) {
	query := s.stmtBuilder().
		Select(serviceRowFields).
		From(servicesTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.MerchantID != nil {
		query = query.Where(sq.Eq{"merchant_id": *criteria.MerchantID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var r serviceRow
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&r.ID, &r.MerchantID, &r.Name, &r.Description,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return r.ToModel(), nil
}

func (s *storageImpl) GetTier(ctx context.Context, criteria catalog.TierGetCriteria) (*catalog.Tier, error) {
	query := s.stmtBuilder().
		Select(tierRowFields).
		From(tiersTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.ServiceID != nil {
		query = query.Where(sq.Eq{"service_id": *criteria.ServiceID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var r tierRow
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&r.ID, &r.ServiceID, &r.Name, &r.Price, &r.Currency,
		&r.DurationDays, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return r.ToModel(), nil
}

func (s *storageImpl) ListTiers(ctx context.Context, criteria catalog.TierListCriteria) ([]*catalog.Tier, error) {
	query := s.stmtBuilder().
		Select(tierRowFields).
		From(tiersTable)

	if criteria.ServiceID != nil {
		query = query.Where(sq.Eq{"service_id": *criteria.ServiceID})
	}
	if criteria.IsActive != nil {
		query = query.Where(sq.Eq{"is_active": *criteria.IsActive})
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("price ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.QueryContext: %w", err)
	}
	defer rows.Close()

	var result []*catalog.Tier
	for rows.Next() {
		var r tierRow
		err = rows.Scan(
			&r.ID, &r.ServiceID, &r.Name, &r.Price, &r.Currency,
			&r.DurationDays, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
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
