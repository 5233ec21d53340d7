package bridge

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

// ErrBadSignature means the initData hash does not match the bot token.
var ErrBadSignature = errors.New("init data signature mismatch")

// Identity is the Telegram-provided user context carried in initData.
// It is a hint toward an account, never a session: every trust decision
// happens server-side against the persisted account row.
type Identity struct {
	TelegramID   int64
	DisplayName  string
	LanguageCode string
	IsPremium    bool
}

type initDataUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	IsPremium    bool   `json:"is_premium"`
}

// ParseInitData extracts the user identity from the query-string shaped
// initData blob the host passes through Ready.
func ParseInitData(raw string) (*Identity, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse query")
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, errors.New("init data has no user field")
	}

	var user initDataUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, errors.Wrap(err, "unmarshal user")
	}
	if user.ID <= 0 {
		return nil, errors.New("init data user has no id")
	}

	return &Identity{
		TelegramID:   user.ID,
		DisplayName:  displayName(user),
		LanguageCode: user.LanguageCode,
		IsPremium:    user.IsPremium,
	}, nil
}

// VerifyInitData checks the blob's HMAC-SHA256 signature against the bot
// token, per the Telegram WebApp scheme: the secret key is
// HMAC("WebAppData", botToken) and the message is the sorted key=value
// pairs excluding hash, joined with newlines.
func VerifyInitData(raw, botToken string) error {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return errors.Wrap(err, "parse query")
	}

	hash := values.Get("hash")
	if hash == "" {
		return errors.New("init data has no hash field")
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	if hex.EncodeToString(mac.Sum(nil)) != hash {
		return ErrBadSignature
	}
	return nil
}

func displayName(user initDataUser) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	return name
}
