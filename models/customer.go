package models

import (
	"strings"
	"time"
)

// Membership tiers
const (
	TierRegular  = "regular"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

var tierDiscounts = map[string]float64{
	TierRegular:  0,
	TierSilver:   5,
	TierGold:     10,
	TierPlatinum: 15,
}

type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone          string    `gorm:"type:varchar(30)" json:"phone"`
	MembershipTier string    `gorm:"type:varchar(20);not null;default:'regular'" json:"membership_tier"`
	LoyaltyPoints  int       `gorm:"not null;default:0" json:"loyalty_points"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// DiscountPercent returns the membership discount for the customer's tier,
// 0 for unknown tiers.
func (c *Customer) DiscountPercent() float64 {
	return tierDiscounts[strings.ToLower(c.MembershipTier)]
}

// ValidTier reports whether tier is one of the known membership tiers.
func ValidTier(tier string) bool {
	_, ok := tierDiscounts[strings.ToLower(tier)]
	return ok
}
