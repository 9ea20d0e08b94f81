package domain

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a players row. Points and item quantities are mutated only
// through the ledger engine and are never negative.
type Player struct {
	ID            uuid.UUID `json:"id"`
	GoogleID      string    `json:"google_id"`
	Nickname      string    `json:"nickname"`
	ReferralCode  *string   `json:"referral_code,omitempty"`
	PhotoURI      *string   `json:"photo_uri,omitempty"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	Points        int64     `json:"points"`
	Retired       bool      `json:"retired"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StreakChallenge is the per-player daily streak record (1:1 with Player).
type StreakChallenge struct {
	PlayerID         uuid.UUID  `json:"player_id"`
	Length           int        `json:"length"`
	LastQualifyingAt *time.Time `json:"last_qualifying_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ItemType enumerates purchasable item categories.
type ItemType string

const (
	ItemPowerUp ItemType = "power_up"
	ItemSkin    ItemType = "skin"
)

// ItemVariant enumerates concrete variants per item type.
type ItemVariant string

const (
	VariantShield     ItemVariant = "shield"
	VariantMagnet     ItemVariant = "magnet"
	VariantMultiplier ItemVariant = "multiplier"
	VariantSkinNeon   ItemVariant = "neon"
	VariantSkinRetro  ItemVariant = "retro"
	VariantSkinGold   ItemVariant = "gold"
)

// variantsByType is the closed set accepted at the boundary. Unknown values
// fail validation rather than falling back.
var variantsByType = map[ItemType][]ItemVariant{
	ItemPowerUp: {VariantShield, VariantMagnet, VariantMultiplier},
	ItemSkin:    {VariantSkinNeon, VariantSkinRetro, VariantSkinGold},
}

// ValidItemVariant reports whether variant belongs to the given item type.
func ValidItemVariant(t ItemType, v ItemVariant) bool {
	for _, known := range variantsByType[t] {
		if known == v {
			return true
		}
	}
	return false
}

// InventoryItem is a player's holding of one item variant. Quantity >= 0; an
// operation that would drive it negative fails instead of clamping.
type InventoryItem struct {
	PlayerID  uuid.UUID   `json:"player_id"`
	Type      ItemType    `json:"type"`
	Variant   ItemVariant `json:"variant"`
	Quantity  int64       `json:"quantity"`
	UpdatedAt time.Time   `json:"updated_at"`
}
