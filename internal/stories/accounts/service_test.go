package accounts

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateAccount(ctx context.Context, account Account) (*Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockStorage) GetAccount(ctx context.Context, criteria GetCriteria) (*Account, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockStorage) UpdateAccount(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Account, error) {
	args := m.Called(ctx, criteria, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetResolution(ctx context.Context, telegramID int64) (*Resolution, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resolution), args.Error(1)
}

func (m *MockCache) SetResolution(ctx context.Context, telegramID int64, res *Resolution) error {
	args := m.Called(ctx, telegramID, res)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestParseTelegramID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "valid id", raw: "123456789", want: 123456789},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "negative", raw: "-5", wantErr: true},
		{name: "zero", raw: "0", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "float", raw: "12.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTelegramID(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Resolve_ExistingAccount(t *testing.T) {
	storage := new(MockStorage)
	telegramID := int64(777)
	storage.On("GetAccount", mock.Anything, GetCriteria{TelegramID: &telegramID}).
		Return(&Account{ID: "acc-1", TelegramID: telegramID, Role: RoleUser}, nil).Once()

	svc := NewService(storage, nil, newNoopLogger())
	res, err := svc.Resolve(context.Background(), "777")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", res.AccountID)
	assert.Equal(t, RoleUser, res.Role)
	assert.Nil(t, res.MerchantID)
	storage.AssertExpectations(t)
}

func TestService_Resolve_FirstContactCreatesUserAccount(t *testing.T) {
	storage := new(MockStorage)
	telegramID := int64(888)
	storage.On("GetAccount", mock.Anything, GetCriteria{TelegramID: &telegramID}).
		Return(nil, nil).Once()
	storage.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a Account) bool {
		return a.TelegramID == telegramID && a.Role == RoleUser && a.ID != ""
	})).Return(&Account{ID: "acc-new", TelegramID: telegramID, Role: RoleUser}, nil).Once()

	svc := NewService(storage, nil, newNoopLogger())
	res, err := svc.Resolve(context.Background(), "888")

	require.NoError(t, err)
	assert.Equal(t, "acc-new", res.AccountID)
	storage.AssertExpectations(t)
}

func TestService_Resolve_InsertRaceAdoptsWinner(t *testing.T) {
	storage := new(MockStorage)
	telegramID := int64(999)
	storage.On("GetAccount", mock.Anything, GetCriteria{TelegramID: &telegramID}).
		Return(nil, nil).Once()
	storage.On("CreateAccount", mock.Anything, mock.Anything).
		Return(nil, ErrAlreadyExists).Once()
	storage.On("GetAccount", mock.Anything, GetCriteria{TelegramID: &telegramID}).
		Return(&Account{ID: "acc-winner", TelegramID: telegramID, Role: RoleUser}, nil).Once()

	svc := NewService(storage, nil, newNoopLogger())
	res, err := svc.Resolve(context.Background(), "999")

	require.NoError(t, err)
	assert.Equal(t, "acc-winner", res.AccountID)
	storage.AssertExpectations(t)
}

func TestService_Resolve_CacheHitSkipsStorage(t *testing.T) {
	storage := new(MockStorage)
	cache := new(MockCache)
	cache.On("GetResolution", mock.Anything, int64(777)).
		Return(&Resolution{AccountID: "acc-1", Role: RoleUser}, nil).Once()

	svc := NewService(storage, cache, newNoopLogger())
	res, err := svc.Resolve(context.Background(), "777")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", res.AccountID)
	storage.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestService_Resolve_CacheFailureIsNotFatal(t *testing.T) {
	storage := new(MockStorage)
	cache := new(MockCache)
	telegramID := int64(777)
	cache.On("GetResolution", mock.Anything, telegramID).
		Return(nil, assert.AnError).Once()
	storage.On("GetAccount", mock.Anything, GetCriteria{TelegramID: &telegramID}).
		Return(&Account{ID: "acc-1", TelegramID: telegramID, Role: RoleUser}, nil).Once()
	cache.On("SetResolution", mock.Anything, telegramID, mock.Anything).
		Return(assert.AnError).Once()

	svc := NewService(storage, cache, newNoopLogger())
	res, err := svc.Resolve(context.Background(), "777")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", res.AccountID)
}

func TestService_Resolve_MerchantResolution(t *testing.T) {
	storage := new(MockStorage)
	telegramID := int64(555)
	storage.On("GetAccount", mock.Anything, GetCriteria{TelegramID: &telegramID}).
		Return(&Account{ID: "acc-m", TelegramID: telegramID, Role: RoleMerchant}, nil).Once()

	svc := NewService(storage, nil, newNoopLogger())
	res, err := svc.Resolve(context.Background(), "555")

	require.NoError(t, err)
	require.NotNil(t, res.MerchantID)
	assert.Equal(t, "acc-m", *res.MerchantID)
	assert.Equal(t, RoleMerchant, res.Role)
}
