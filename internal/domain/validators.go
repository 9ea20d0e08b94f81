package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	seedRegex     = regexp.MustCompile(`^[0-9a-f]{32}$`)
	referralRegex = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)
	walletRegex   = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// ValidateGoogleID checks the external auth subject id.
func ValidateGoogleID(id string) error {
	if id == "" {
		return fmt.Errorf("googleId is required")
	}
	if len(id) < 21 {
		return fmt.Errorf("googleId must be at least 21 characters")
	}
	return nil
}

// ValidateNickname checks an optional nickname (2-25 characters).
func ValidateNickname(nick string) error {
	if nick == "" {
		return nil
	}
	n := utf8.RuneCountInString(nick)
	if n < 2 || n > 25 {
		return fmt.Errorf("nickName must be 2-25 characters, got %d", n)
	}
	return nil
}

// ValidateReferralCode checks an optional referral code (exactly 8 alphanumerics).
func ValidateReferralCode(code string) error {
	if code == "" {
		return nil
	}
	if !referralRegex.MatchString(code) {
		return fmt.Errorf("referralCode must be exactly 8 alphanumeric characters")
	}
	return nil
}

// ValidateSessionID checks a session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("sessionId is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("sessionId too long")
	}
	return nil
}

// ValidateSeedFormat checks the deterministic-seed wire format: 16 bytes of
// lowercase hex. Binding to the session id is the seed guard's job.
func ValidateSeedFormat(seed string) error {
	if !seedRegex.MatchString(seed) {
		return fmt.Errorf("seed must be 32 lowercase hex characters")
	}
	return nil
}

// ValidateWalletAddress checks a 0x-prefixed 20-byte hex address.
func ValidateWalletAddress(addr string) error {
	if !walletRegex.MatchString(addr) {
		return fmt.Errorf("invalid wallet address: %s", addr)
	}
	return nil
}

// ValidatePositiveAmount checks that an amount is positive.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}
