package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Account is a registered game account. The client always sends account names in
// upper case, so Username is stored that way.
type Account struct {
	ID               uint64 `gorm:"primaryKey"`
	Username         string `gorm:"unique; not null"`
	Email            string
	RegistrationDate time.Time
	Banned           bool `gorm:"default:false"`
	Locale           string
	LastIP           string
	LastLogin        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func FindAccountByID(db *gorm.DB, id uint64) (*Account, error) {
	var account Account
	err := db.First(&account, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// FindAccountByUsername searches for an account with the specified username, returning the
// *Account instance if found or nil if there is no match.
func FindAccountByUsername(db *gorm.DB, username string) (*Account, error) {
	var account Account
	err := db.Where("username = ?", username).First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// FindUnscopedAccount searches for a potentially soft-deleted account with the
// specified username.
func FindUnscopedAccount(db *gorm.DB, username string) (*Account, error) {
	var account Account
	err := db.Unscoped().Where("username = ?", username).First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// CreateAccount persists the Account record to the database.
func CreateAccount(db *gorm.DB, account *Account) error {
	if account.RegistrationDate.IsZero() {
		account.RegistrationDate = time.Now()
	}
	return db.Create(account).Error
}

// RecordLogon stores where and when the account last presented a logon challenge.
func RecordLogon(db *gorm.DB, account *Account, ip, locale string, at time.Time) error {
	return db.Model(account).Updates(map[string]interface{}{
		"last_ip":    ip,
		"locale":     locale,
		"last_login": at,
	}).Error
}

// SetAccountBanned flips the account-level ban flag.
func SetAccountBanned(db *gorm.DB, account *Account, banned bool) error {
	return db.Model(account).Update("banned", banned).Error
}

// DeleteAccount soft-deletes an Account record from the database.
func DeleteAccount(db *gorm.DB, account *Account) error {
	return db.Delete(account).Error
}

// PermanentlyDeleteAccount permanently deletes an Account record from the database.
func PermanentlyDeleteAccount(db *gorm.DB, account *Account) error {
	return db.Unscoped().Delete(account).Error
}
