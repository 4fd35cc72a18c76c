package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept on computed amounts.
const MoneyScale = 2

// DepreciationMethod selects how an asset's monthly charge is computed.
type DepreciationMethod int

const (
	// StraightLine charges (cost - salvage) / life every month.
	StraightLine DepreciationMethod = iota + 1
	// DecliningBalance charges a fixed double rate on the remaining book value.
	DecliningBalance
)

// ParseMethod parses "SL" or "DDB".
func ParseMethod(s string) (DepreciationMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SL":
		return StraightLine, nil
	case "DDB":
		return DecliningBalance, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// String returns the short method code.
func (m DepreciationMethod) String() string {
	switch m {
	case StraightLine:
		return "SL"
	case DecliningBalance:
		return "DDB"
	default:
		return fmt.Sprintf("DepreciationMethod(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m DepreciationMethod) MarshalText() ([]byte, error) {
	switch m {
	case StraightLine, DecliningBalance:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DepreciationMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Asset is a registered fixed asset. Assets are never mutated once registered.
type Asset struct {
	ID         string
	Entity     string
	Name       string
	Currency   string
	Class      string
	Cost       decimal.Decimal
	Salvage    decimal.Decimal
	Method     DepreciationMethod
	LifeMonths int
	InService  time.Time
}

// StartPeriod returns the month depreciation begins.
func (a *Asset) StartPeriod() Period {
	return PeriodOf(a.InService)
}

// DepreciableBase returns cost minus salvage.
func (a *Asset) DepreciableBase() decimal.Decimal {
	return a.Cost.Sub(a.Salvage)
}

// Validate checks cost >= salvage >= 0, a positive life and a known method.
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidAsset)
	}

	if a.Salvage.IsNegative() {
		return fmt.Errorf("%w: %s salvage must not be negative", ErrInvalidAsset, a.ID)
	}

	if a.Cost.LessThan(a.Salvage) {
		return fmt.Errorf("%w: %s cost %s is below salvage %s", ErrInvalidAsset, a.ID, a.Cost, a.Salvage)
	}

	if err := ValidateAmount(a.Cost); err != nil {
		return fmt.Errorf("%w: %s cost: %v", ErrInvalidAsset, a.ID, err)
	}

	if a.LifeMonths <= 0 {
		return fmt.Errorf("%w: %s life must be positive", ErrInvalidAsset, a.ID)
	}

	if a.Method != StraightLine && a.Method != DecliningBalance {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, a.ID)
	}

	if a.InService.IsZero() {
		return fmt.Errorf("%w: %s in-service date is required", ErrInvalidAsset, a.ID)
	}

	return ValidateCurrency(a.Currency)
}

// Disposal removes an asset from service and truncates its schedule at the
// disposal month, inclusive.
type Disposal struct {
	AssetID  string
	Date     time.Time
	Proceeds decimal.Decimal
	Note     string
}

// Period returns the disposal month.
func (d *Disposal) Period() Period {
	return PeriodOf(d.Date)
}

// Validate checks the disposal references an asset and has non-negative proceeds.
func (d *Disposal) Validate() error {
	if strings.TrimSpace(d.AssetID) == "" {
		return fmt.Errorf("%w: asset id is required", ErrInvalidDisposal)
	}

	if err := ValidateAmount(d.Proceeds); err != nil {
		return fmt.Errorf("%w: %s proceeds: %v", ErrInvalidDisposal, d.AssetID, err)
	}

	if d.Date.IsZero() {
		return fmt.Errorf("%w: %s date is required", ErrInvalidDisposal, d.AssetID)
	}

	return nil
}
