package entitlement

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Limit is a usage ceiling. Unlimited marks a ceiling that never binds.
type Limit int64

// Unlimited is the ceiling that always allows.
const Unlimited Limit = -1

const unlimitedText = "unlimited"

// IsUnlimited reports whether l never binds.
func (l Limit) IsUnlimited() bool {
	return l < 0
}

func (l Limit) String() string {
	if l.IsUnlimited() {
		return unlimitedText
	}
	return strconv.FormatInt(int64(l), 10)
}

// MarshalJSON encodes Unlimited as "unlimited" and anything else as a number.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.IsUnlimited() {
		return json.Marshal(unlimitedText)
	}
	return json.Marshal(int64(l))
}

// UnmarshalJSON accepts a number or "unlimited".
func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != unlimitedText {
			return fmt.Errorf("limit: unexpected string %q", s)
		}
		*l = Unlimited
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("limit: %w", err)
	}
	*l = Limit(n)
	return nil
}
