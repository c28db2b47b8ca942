package model

import "time"

// Wallet attributes positions to an address the user controls. Read-only from
// the core's perspective; seeded once from a JSON file at first boot.
type Wallet struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	PublicAddress string    `gorm:"size:128;not null" json:"public_address"`
	Tags          string    `gorm:"size:255" json:"tags,omitempty"`
	Active        bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Wallet) TableName() string { return "wallets" }
