// Package auth implements the AUTH server backend: it answers the client's logon
// challenge and keeps track of the sessions that passed it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/wowcore/wowcore/internal/core/data"
	"github.com/wowcore/wowcore/internal/packets"
)

var (
	ErrUnknown        = errors.New("an unexpected error occurred, please contact your server administrator")
	ErrUnknownAccount = errors.New("account not found")
	ErrAccountBanned  = errors.New("this account has been suspended")
	ErrAddressBanned  = errors.New("this address has been banned")
)

// NormalizeUsername converts an account name to the upper case form the client sends.
func NormalizeUsername(username string) string {
	// Casers are stateful, so each call gets its own.
	return cases.Upper(language.Und).String(username)
}

// VerifyAccount checks that the account exists and is allowed to log in.
func VerifyAccount(db *gorm.DB, username string) (*data.Account, error) {
	account, err := data.FindAccountByUsername(db, NormalizeUsername(username))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	if account == nil {
		return nil, ErrUnknownAccount
	} else if account.Banned {
		return nil, ErrAccountBanned
	}

	return account, nil
}

// VerifyAddress checks the IP ban table for ip.
func VerifyAddress(db *gorm.DB, ip string, now time.Time) error {
	banned, err := data.IsIPBanned(db, ip, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	if banned {
		return ErrAddressBanned
	}
	return nil
}

// resultFor maps a verification error to the result code sent back to the client.
func resultFor(err error) packets.Result {
	switch {
	case err == nil:
		return packets.ResultSuccess
	case errors.Is(err, ErrUnknownAccount):
		return packets.ResultUnknownAccount
	case errors.Is(err, ErrAccountBanned), errors.Is(err, ErrAddressBanned):
		return packets.ResultBanned
	default:
		return packets.ResultDatabaseBusy
	}
}

// ParseLocale turns the client's four letter locale code, e.g. "enUS", into a
// language tag.
func ParseLocale(code string) (language.Tag, error) {
	if len(code) != 4 {
		return language.Und, fmt.Errorf("malformed locale %q", code)
	}
	tag, err := language.Parse(code[:2] + "-" + code[2:])
	if err != nil {
		return language.Und, fmt.Errorf("malformed locale %q: %w", code, err)
	}
	return tag, nil
}
