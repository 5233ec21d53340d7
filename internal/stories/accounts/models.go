package accounts

import "time"

// Role is the backend-assigned role of an account. Screens must branch on
// the predicates below instead of comparing raw strings.
type Role string

const (
	RoleUser          Role = "USER"
	RoleMerchant      Role = "MERCHANT"
	RolePlatformStaff Role = "PLATFORM_STAFF"
)

// IsStaff reports whether the role has platform-wide oversight.
func (r Role) IsStaff() bool {
	return r == RolePlatformStaff
}

// IsMerchant reports whether the account owns a merchant surface.
func (r Role) IsMerchant() bool {
	return r == RoleMerchant
}

type Account struct {
	ID           string
	TelegramID   int64
	Role         Role
	DisplayName  string
	LanguageCode string
	IsPremium    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resolution is what a Telegram id maps to. MerchantID is set only for
// merchant accounts and equals the account id.
type Resolution struct {
	AccountID  string
	MerchantID *string
	Role       Role
}

// Resolution derives the resolver's answer from a stored account.
func (a *Account) Resolution() *Resolution {
	res := &Resolution{
		AccountID: a.ID,
		Role:      a.Role,
	}
	if a.Role.IsMerchant() {
		id := a.ID
		res.MerchantID = &id
	}
	return res
}

type GetCriteria struct {
	ID         *string
	TelegramID *int64
}

type UpdateParams struct {
	Role         *Role
	DisplayName  *string
	LanguageCode *string
	IsPremium    *bool
}
