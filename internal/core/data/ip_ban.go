package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// IPBan blocks every connection from an address. A nil ExpiresAt never expires.
type IPBan struct {
	ID        uint64 `gorm:"primaryKey"`
	IP        string `gorm:"uniqueIndex; not null"`
	Reason    string
	BannedAt  time.Time
	ExpiresAt *time.Time
}

// Active reports whether the ban is still in force at the given time.
func (b *IPBan) Active(now time.Time) bool {
	return b.ExpiresAt == nil || now.Before(*b.ExpiresAt)
}

// FindIPBan returns the ban recorded for ip, or nil if there isn't one.
func FindIPBan(db *gorm.DB, ip string) (*IPBan, error) {
	var ban IPBan
	err := db.Where("ip = ?", ip).First(&ban).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &ban, nil
}

// IsIPBanned reports whether ip has a ban that is active at now.
func IsIPBanned(db *gorm.DB, ip string, now time.Time) (bool, error) {
	ban, err := FindIPBan(db, ip)
	if err != nil || ban == nil {
		return false, err
	}
	return ban.Active(now), nil
}

// CreateIPBan bans an address, replacing any previous ban on it.
func CreateIPBan(db *gorm.DB, ban *IPBan) error {
	if ban.BannedAt.IsZero() {
		ban.BannedAt = time.Now()
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ip = ?", ban.IP).Delete(&IPBan{}).Error; err != nil {
			return err
		}
		return tx.Create(ban).Error
	})
}

// DeleteIPBan lifts the ban on ip and reports whether there was one.
func DeleteIPBan(db *gorm.DB, ip string) (bool, error) {
	result := db.Where("ip = ?", ip).Delete(&IPBan{})
	return result.RowsAffected > 0, result.Error
}

// ListIPBans returns all bans ordered by address.
func ListIPBans(db *gorm.DB) ([]IPBan, error) {
	var bans []IPBan
	err := db.Order("ip").Find(&bans).Error
	return bans, err
}

// PurgeExpiredIPBans deletes every ban that expired before now.
func PurgeExpiredIPBans(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&IPBan{})
	return result.RowsAffected, result.Error
}
