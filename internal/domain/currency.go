package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ConversionTable maps a currency code to its multiplier into the reporting
// currency.
type ConversionTable struct {
	Reporting string
	Rates     map[string]decimal.Decimal
}

// NewConversionTable creates a new ConversionTable. The reporting currency
// always converts at 1.
func NewConversionTable(reporting string, rates map[string]decimal.Decimal) *ConversionTable {
	reporting = strings.ToUpper(reporting)
	normalized := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	if _, ok := normalized[reporting]; !ok {
		normalized[reporting] = decimal.NewFromInt(1)
	}
	return &ConversionTable{Reporting: reporting, Rates: normalized}
}

// ParseRates parses "VND:1,USD:25200".
func ParseRates(s string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		code, raw, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("%w: malformed rate %q", ErrUnknownCurrency, pair)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("%w: bad rate for %s", ErrUnknownCurrency, code)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

// Convert converts amount from currency into the reporting currency.
func (t *ConversionTable) Convert(amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, ok := t.Rates[strings.ToUpper(currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
	return amount.Mul(rate).Round(MoneyScale), nil
}

// Currencies returns the known currency codes in sorted order.
func (t *ConversionTable) Currencies() []string {
	codes := make([]string, 0, len(t.Rates))
	for code := range t.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
