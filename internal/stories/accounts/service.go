package accounts

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrInvalidIdentity is returned for a telegram id that is not a
	// positive integer. Fatal for the operation, never retried.
	ErrInvalidIdentity = errors.New("invalid telegram identity")

	// ErrAlreadyExists is returned by the storage layer when the
	// UNIQUE(telegram_id) constraint rejects an insert.
	ErrAlreadyExists = errors.New("account already exists")
)

// Service resolves Telegram identities into durable accounts.
type Service struct {
	storage Storage
	cache   Cache
	logger  *slog.Logger
	tracer  trace.Tracer
	created metric.Int64Counter
}

// NewService creates a new account resolution service
func NewService(storage Storage, cache Cache, logger *slog.Logger) *Service {
	meter := otel.Meter("signalmarket/accounts")
	created, _ := meter.Int64Counter("accounts_created_total",
		metric.WithDescription("accounts created on first contact"))

	return &Service{
		storage: storage,
		cache:   cache,
		logger:  logger,
		tracer:  otel.Tracer("signalmarket/accounts"),
		created: created,
	}
}

// ParseTelegramID validates the raw id from the sync request. Telegram
// user ids are positive int64s; anything else is ErrInvalidIdentity.
func ParseTelegramID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(ErrInvalidIdentity, "telegram id %q", raw)
	}
	return id, nil
}

// Resolve maps a Telegram id onto a durable account, creating the account
// on first contact. Repeated and concurrent calls for the same id always
// return the same account: a loser of the insert race re-reads the row
// written by the winner instead of erroring.
func (s *Service) Resolve(ctx context.Context, rawTelegramID string) (*Resolution, error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Resolve")
	defer span.End()

	telegramID, err := ParseTelegramID(rawTelegramID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("telegram_id", telegramID))

	if s.cache != nil {
		cached, err := s.cache.GetResolution(ctx, telegramID)
		if err != nil {
			s.logger.Warn("resolution cache read failed", "error", err, "telegram_id", telegramID)
		} else if cached != nil {
			return cached, nil
		}
	}

	account, err := s.storage.GetAccount(ctx, GetCriteria{TelegramID: &telegramID})
	if err != nil {
		return nil, errors.Wrap(err, "get account")
	}

	if account == nil {
		account, err = s.createFirstContact(ctx, telegramID)
		if err != nil {
			return nil, err
		}
	}

	res := account.Resolution()

	if s.cache != nil {
		if err := s.cache.SetResolution(ctx, telegramID, res); err != nil {
			s.logger.Warn("resolution cache write failed", "error", err, "telegram_id", telegramID)
		}
	}

	return res, nil
}

func (s *Service) createFirstContact(ctx context.Context, telegramID int64) (*Account, error) {
	created, err := s.storage.CreateAccount(ctx, Account{
		ID:         uuid.NewString(),
		TelegramID: telegramID,
		Role:       RoleUser,
	})
	if err == nil {
		s.created.Add(ctx, 1)
		s.logger.Info("account created on first contact",
			"account_id", created.ID,
			"telegram_id", telegramID,
		)
		return created, nil
	}

	// Two near-simultaneous first contacts race on the unique constraint;
	// the loser adopts the winner's row.
	if errors.Is(err, ErrAlreadyExists) {
		winner, getErr := s.storage.GetAccount(ctx, GetCriteria{TelegramID: &telegramID})
		if getErr != nil {
			return nil, errors.Wrap(getErr, "get account after insert race")
		}
		if winner == nil {
			return nil, errors.Wrap(err, "account vanished after insert race")
		}
		return winner, nil
	}

	return nil, errors.Wrap(err, "create account")
}
