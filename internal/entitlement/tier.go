// Package entitlement resolves a user to a membership tier and answers
// feature and usage-limit questions from a static tier table.
package entitlement

import (
	"fmt"
	"strings"

	"github.com/LavishGent/routegov/internal/types"
)

// Tier is a membership level.
type Tier string

const (
	TierFree     Tier = "free"
	TierBasic    Tier = "basic"
	TierAdvanced Tier = "advanced"
	TierExpert   Tier = "expert"
	TierTest     Tier = "test"
)

// Tiers lists every tier in ascending order of capability.
var Tiers = []Tier{TierFree, TierBasic, TierAdvanced, TierExpert, TierTest}

func (t Tier) String() string {
	return string(t)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierAdvanced, TierExpert, TierTest:
		return true
	}
	return false
}

// DisplayName returns the name shown to users.
func (t Tier) DisplayName() string {
	switch t {
	case TierFree:
		return "Free Explorer"
	case TierBasic:
		return "Basic Explorer"
	case TierAdvanced:
		return "Advanced Explorer"
	case TierExpert:
		return "Expert Explorer"
	case TierTest:
		return "Test User"
	}
	return string(t)
}

// Price returns the one-time purchase price in USD.
func (t Tier) Price() float64 {
	switch t {
	case TierBasic:
		return 29.99
	case TierAdvanced:
		return 59.99
	case TierExpert:
		return 99.99
	}
	return 0
}

// ParseTier parses a tier name, ignoring case and surrounding space.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownTier, s)
	}
	return t, nil
}
