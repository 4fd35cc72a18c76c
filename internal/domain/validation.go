package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrInvalidEntity   = errors.New("invalid entity code")
)

// Validation constants
const (
	MaxAmount       = "1000000000000000" // 1 quadrillion, VND scale
	MaxEntityLength = 32
	MaxPageSize     = 1000
	DefaultPageSize = 50
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SGD": true, "KRW": true, "HKD": true, "VND": true,
	"THB": true, "INR": true, "IDR": true, "MYR": true,
}

var entityRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a non-negative money amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateEntity validates an entity code such as "co1"
func ValidateEntity(entity string) error {
	if len(entity) == 0 || len(entity) > MaxEntityLength {
		return fmt.Errorf("%w: %q", ErrInvalidEntity, entity)
	}

	if !entityRegex.MatchString(entity) {
		return fmt.Errorf("%w: %q", ErrInvalidEntity, entity)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
