package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// ScheduleLine is one in-service month of an asset's depreciation table.
type ScheduleLine struct {
	Period       Period
	Opening      decimal.Decimal
	Depreciation decimal.Decimal
	Closing      decimal.Decimal
	Method       DepreciationMethod
}

// Schedule is a chronological sequence of schedule lines for one asset.
type Schedule []ScheduleLine

// EffectiveEnd returns the last month a schedule built as of asOf can cover.
func EffectiveEnd(disposal *Disposal, asOf Period) Period {
	if disposal != nil && disposal.Period().Before(asOf) {
		return disposal.Period()
	}
	return asOf
}

// BuildSchedule returns one line per month from the asset's in-service month
// to min(asOf, disposal month). The result is empty when that end precedes
// the start month. The function is pure: identical inputs give identical output.
func BuildSchedule(asset *Asset, disposal *Disposal, asOf Period) (Schedule, error) {
	start := asset.StartPeriod()
	end := EffectiveEnd(disposal, asOf)

	months, err := MonthsBetweenInclusive(start, end)
	if err != nil {
		return Schedule{}, nil
	}

	life := asset.LifeMonths
	if life <= 0 {
		life = 1
	}

	var monthly func(opening decimal.Decimal) decimal.Decimal
	switch asset.Method {
	case StraightLine:
		charge := asset.DepreciableBase().Div(decimal.NewFromInt(int64(life))).Round(MoneyScale)
		monthly = func(decimal.Decimal) decimal.Decimal { return charge }
	case DecliningBalance:
		// annual rate 2/(life/12) spread over 12 months reduces to 2/life.
		rate := two.Div(decimal.NewFromInt(int64(life)))
		monthly = func(opening decimal.Decimal) decimal.Decimal {
			return opening.Mul(rate).Round(MoneyScale)
		}
	default:
		return nil, fmt.Errorf("%w: %s uses %s", ErrUnknownMethod, asset.ID, asset.Method)
	}

	schedule := make(Schedule, 0, months)
	opening := asset.Cost
	for i := 0; i < months; i++ {
		dep := monthly(opening)
		if opening.Sub(dep).LessThan(asset.Salvage) {
			dep = decimal.Max(decimal.Zero, opening.Sub(asset.Salvage))
		}

		closing := opening.Sub(dep)
		schedule = append(schedule, ScheduleLine{
			Period:       start.AddMonths(i),
			Opening:      opening,
			Depreciation: dep,
			Closing:      closing,
			Method:       asset.Method,
		})
		opening = closing
	}

	return schedule, nil
}

// Last returns the last line at or before p.
func (s Schedule) Last(p Period) (ScheduleLine, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Period.After(p) {
			return s[i], true
		}
	}
	return ScheduleLine{}, false
}

// At returns the line for exactly p.
func (s Schedule) At(p Period) (ScheduleLine, bool) {
	for _, line := range s {
		if line.Period == p {
			return line, true
		}
	}
	return ScheduleLine{}, false
}

// TotalDepreciation sums depreciation of lines at or before p.
func (s Schedule) TotalDepreciation(p Period) decimal.Decimal {
	total := decimal.Zero
	for _, line := range s {
		if line.Period.After(p) {
			break
		}
		total = total.Add(line.Depreciation)
	}
	return total
}

// NetBookValueAt returns the closing value of the last line at or before p,
// or the asset's cost when it is not yet in service.
func NetBookValueAt(asset *Asset, disposal *Disposal, p Period) (decimal.Decimal, error) {
	schedule, err := BuildSchedule(asset, disposal, p)
	if err != nil {
		return decimal.Zero, err
	}

	if line, ok := schedule.Last(p); ok {
		return line.Closing, nil
	}
	return asset.Cost, nil
}

// AccumulatedDepreciationAt sums every monthly charge up to and including p.
func AccumulatedDepreciationAt(asset *Asset, disposal *Disposal, p Period) (decimal.Decimal, error) {
	schedule, err := BuildSchedule(asset, disposal, p)
	if err != nil {
		return decimal.Zero, err
	}
	return schedule.TotalDepreciation(p), nil
}

// PeriodDepreciation returns the charge for exactly p, or zero when p is
// before the start month or after the disposal month.
func PeriodDepreciation(asset *Asset, disposal *Disposal, p Period) (decimal.Decimal, error) {
	schedule, err := BuildSchedule(asset, disposal, p)
	if err != nil {
		return decimal.Zero, err
	}

	if line, ok := schedule.At(p); ok {
		return line.Depreciation, nil
	}
	return decimal.Zero, nil
}

// DisposalResult is the gain or loss realised when an asset leaves service.
type DisposalResult struct {
	AssetID     string
	Period      Period
	Proceeds    decimal.Decimal
	Cost        decimal.Decimal
	NetBook     decimal.Decimal
	Accumulated decimal.Decimal
	GainLoss    decimal.Decimal
	Note        string
}

// IsGain reports whether proceeds exceeded the net book value.
func (r *DisposalResult) IsGain() bool {
	return r.GainLoss.IsPositive()
}

// EvaluateDisposal computes gain or loss at the disposal month. It returns
// false when there is no disposal or it falls after target. The figure does
// not change for later targets since the schedule stops at the disposal month.
func EvaluateDisposal(asset *Asset, disposal *Disposal, target Period) (*DisposalResult, bool, error) {
	if disposal == nil || disposal.Period().After(target) {
		return nil, false, nil
	}

	month := disposal.Period()
	schedule, err := BuildSchedule(asset, disposal, month)
	if err != nil {
		return nil, false, err
	}

	nbv := asset.Cost
	if line, ok := schedule.Last(month); ok {
		nbv = line.Closing
	}

	return &DisposalResult{
		AssetID:     asset.ID,
		Period:      month,
		Proceeds:    disposal.Proceeds,
		Cost:        asset.Cost,
		NetBook:     nbv,
		Accumulated: schedule.TotalDepreciation(month),
		GainLoss:    disposal.Proceeds.Sub(nbv),
		Note:        disposal.Note,
	}, true, nil
}
