// Package fee computes agency fees from an agreed salary and a percentage
// rate. All arithmetic is done on arbitrary-precision decimals; the only
// rounding happens once, at the configured currency scale.
package fee

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRate is returned when a rate is outside [0, 100].
	ErrInvalidRate = errors.New("fee rate must be between 0 and 100")

	// ErrInvalidAmount is returned for a negative amount.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrTooPrecise is returned for values with more than MaxScale decimal
	// places.
	ErrTooPrecise = errors.New("at most 4 decimal places are supported")
)

var hundred = decimal.NewFromInt(100)

// DefaultScale keeps whole currency units.
const DefaultScale int32 = 0

// MaxScale is the number of decimal places the money and rate columns keep.
// Inputs and the currency scale never exceed it, so a stored matching always
// reproduces its fees.
const MaxScale int32 = 4

// FitsScale reports whether d has at most MaxScale significant decimal
// places. Trailing zeros do not count.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MaxScale))
}

// Calculate returns amount * ratePercent / 100 rounded half-up to whole
// units.
func Calculate(amount, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	return Calculator{Scale: DefaultScale}.Calculate(amount, ratePercent)
}

// ValidateRate reports ErrInvalidRate unless 0 <= r <= 100, and
// ErrTooPrecise when r does not fit MaxScale.
func ValidateRate(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(hundred) {
		return ErrInvalidRate
	}
	if !FitsScale(r) {
		return ErrTooPrecise
	}
	return nil
}

// ValidateAmount reports ErrInvalidAmount for a negative amount and
// ErrTooPrecise when it does not fit MaxScale.
func ValidateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return ErrInvalidAmount
	}
	if !FitsScale(a) {
		return ErrTooPrecise
	}
	return nil
}

// Calculator applies the fee formula at a fixed currency scale.
type Calculator struct {
	Scale int32
}

// Calculate returns amount * ratePercent / 100 rounded half-up to c.Scale.
func (c Calculator) Calculate(amount, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	if err := ValidateRate(ratePercent); err != nil {
		return decimal.Zero, err
	}
	// Mul is exact; Div only rounds beyond DivisionPrecision (16 places)
	// which is far below any currency scale.
	return amount.Mul(ratePercent).Div(hundred).Round(c.Scale), nil
}

// Breakdown is the fee split for a single agreed salary.
type Breakdown struct {
	AgreedSalary    decimal.Decimal `json:"agreed_salary"`
	EmployerFeeRate decimal.Decimal `json:"employer_fee_rate"`
	EmployeeFeeRate decimal.Decimal `json:"employee_fee_rate"`
	EmployerFee     decimal.Decimal `json:"employer_fee_amount"`
	EmployeeFee     decimal.Decimal `json:"employee_fee_amount"`
	Total           decimal.Decimal `json:"total_fee_amount"`
}

// Breakdown computes both sides of a matching fee.
func (c Calculator) Breakdown(amount, employerRate, employeeRate decimal.Decimal) (Breakdown, error) {
	er, err := c.Calculate(amount, employerRate)
	if err != nil {
		return Breakdown{}, err
	}
	ee, err := c.Calculate(amount, employeeRate)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		AgreedSalary:    amount,
		EmployerFeeRate: employerRate,
		EmployeeFeeRate: employeeRate,
		EmployerFee:     er,
		EmployeeFee:     ee,
		Total:           er.Add(ee),
	}, nil
}
