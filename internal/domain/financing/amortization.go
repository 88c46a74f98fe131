package financing

import (
	"time"

	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AmortizationMethod represents the amortization system used by a financing
type AmortizationMethod string

const (
	MethodPrice AmortizationMethod = "PRICE" // Constant payment (French system)
	MethodSAC   AmortizationMethod = "SAC"   // Constant amortization
)

// IsValid checks if the method is a valid AmortizationMethod
func (m AmortizationMethod) IsValid() bool {
	return m == MethodPrice || m == MethodSAC
}

// String returns the string representation of AmortizationMethod
func (m AmortizationMethod) String() string {
	return string(m)
}

// InstallmentLine is one row of an amortization schedule.
// TotalAmount = InterestAmount + AmortizationAmount holds for every line.
type InstallmentLine struct {
	SequenceNumber     int
	TotalAmount        decimal.Decimal
	InterestAmount     decimal.Decimal
	AmortizationAmount decimal.Decimal
	DueDate            time.Time
}

// ScheduleInput carries the parameters for a schedule computation
type ScheduleInput struct {
	Balance           decimal.Decimal
	AnnualRatePercent decimal.Decimal
	Periods           int
	StartingSequence  int
	FirstDueDate      time.Time
	Method            AmortizationMethod
}

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// moneyPlaces is the rounding precision for emitted monetary values.
// Rounding is half-up, applied identically by both methods and by
// recalculation.
const moneyPlaces = 2

// CalculateSchedule produces an amortization schedule for the given balance,
// annual rate (percentage units, e.g. 12.0 for 12% a year) and number of
// periods. It is a pure function with no side effects.
//
// The final period's amortization absorbs accumulated rounding drift so the
// emitted amortizations sum exactly to the opening balance.
func CalculateSchedule(in ScheduleInput) ([]InstallmentLine, error) {
	if in.Balance.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Balance must be positive")
	}
	if in.AnnualRatePercent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Annual rate cannot be negative")
	}
	if in.Periods < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Number of periods must be at least 1")
	}
	if in.StartingSequence < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Starting sequence must be at least 1")
	}
	if !in.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amortization method is not valid")
	}

	monthlyRate := in.AnnualRatePercent.Div(twelve).Div(hundred)
	periods := decimal.NewFromInt(int64(in.Periods))

	switch in.Method {
	case MethodPrice:
		return priceSchedule(in, monthlyRate, periods), nil
	default:
		return sacSchedule(in, monthlyRate, periods), nil
	}
}

// priceSchedule implements the constant-payment (annuity) system:
// payment = balance * rate * (1+rate)^n / ((1+rate)^n - 1).
// A zero rate degrades to balance / n, the annuity formula is undefined there.
func priceSchedule(in ScheduleInput, monthlyRate, periods decimal.Decimal) []InstallmentLine {
	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = in.Balance.Div(periods).Round(moneyPlaces)
	} else {
		compound := one.Add(monthlyRate).Pow(periods)
		factor := monthlyRate.Mul(compound).Div(compound.Sub(one))
		payment = in.Balance.Mul(factor).Round(moneyPlaces)
	}

	lines := make([]InstallmentLine, 0, in.Periods)
	runningBalance := in.Balance

	for k := 0; k < in.Periods; k++ {
		interest := runningBalance.Mul(monthlyRate).Round(moneyPlaces)

		var amortization, total decimal.Decimal
		if k == in.Periods-1 {
			amortization = runningBalance.Round(moneyPlaces)
			total = amortization.Add(interest)
		} else {
			total = payment
			amortization = total.Sub(interest)
		}

		lines = append(lines, InstallmentLine{
			SequenceNumber:     in.StartingSequence + k,
			TotalAmount:        total,
			InterestAmount:     interest,
			AmortizationAmount: amortization,
			DueDate:            in.FirstDueDate.AddDate(0, k, 0),
		})

		runningBalance = runningBalance.Sub(amortization)
	}

	return lines
}

// sacSchedule implements the constant-amortization system:
// amortization = balance / n every period, interest decays with the balance.
func sacSchedule(in ScheduleInput, monthlyRate, periods decimal.Decimal) []InstallmentLine {
	amortization := in.Balance.Div(periods).Round(moneyPlaces)

	lines := make([]InstallmentLine, 0, in.Periods)
	runningBalance := in.Balance

	for k := 0; k < in.Periods; k++ {
		interest := runningBalance.Mul(monthlyRate).Round(moneyPlaces)

		periodAmortization := amortization
		if k == in.Periods-1 {
			periodAmortization = runningBalance.Round(moneyPlaces)
		}
		total := periodAmortization.Add(interest)

		lines = append(lines, InstallmentLine{
			SequenceNumber:     in.StartingSequence + k,
			TotalAmount:        total,
			InterestAmount:     interest,
			AmortizationAmount: periodAmortization,
			DueDate:            in.FirstDueDate.AddDate(0, k, 0),
		})

		runningBalance = runningBalance.Sub(periodAmortization)
	}

	return lines
}
