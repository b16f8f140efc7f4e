package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyValidationConfig controls which store keys the validator accepts.
type KeyValidationConfig struct {
	ReservedPatterns  []string
	MaxKeyLength      int
	AllowEmpty        bool
	AllowControlChars bool
	AllowWhitespace   bool
}

// DefaultKeyValidationConfig allows whitespace, since user ids often
// contain it, and caps keys at 512 bytes.
func DefaultKeyValidationConfig() KeyValidationConfig {
	return KeyValidationConfig{
		MaxKeyLength:    512,
		AllowWhitespace: true,
	}
}

// KeyValidator guards store keys. Membership and usage keys embed the
// caller's user id verbatim, so every user id ends up checked here.
type KeyValidator struct {
	config KeyValidationConfig
}

func NewKeyValidator(config KeyValidationConfig) *KeyValidator {
	return &KeyValidator{config: config}
}

// DefaultKeyValidator is the validator used when none is configured.
var DefaultKeyValidator = NewKeyValidator(DefaultKeyValidationConfig())

// Validate returns an error wrapping ErrInvalidKey when key breaks a rule.
func (v *KeyValidator) Validate(key string) error {
	cfg := v.config
	switch {
	case key == "" && cfg.AllowEmpty:
		return nil
	case key == "":
		return invalidKey("empty")
	case cfg.MaxKeyLength > 0 && len(key) > cfg.MaxKeyLength:
		return invalidKey("%d bytes, limit is %d", len(key), cfg.MaxKeyLength)
	case !utf8.ValidString(key):
		return invalidKey("not valid UTF-8")
	}

	if i := strings.IndexFunc(key, v.forbidden); i >= 0 {
		r, _ := utf8.DecodeRuneInString(key[i:])
		return invalidKey("forbidden character %U at byte %d", r, i)
	}

	for _, pattern := range cfg.ReservedPatterns {
		if pattern != "" && strings.Contains(key, pattern) {
			return invalidKey("contains reserved %q", pattern)
		}
	}
	return nil
}

func (v *KeyValidator) forbidden(r rune) bool {
	if !v.config.AllowControlChars && (r < 0x20 || r == 0x7f) {
		return true
	}
	return !v.config.AllowWhitespace && unicode.IsSpace(r)
}

func invalidKey(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidKey}, args...)...)
}

func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}
