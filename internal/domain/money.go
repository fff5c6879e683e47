package domain

import "github.com/shopspring/decimal"

// monetaryPrecision is cents; budgets and bids are compared at this scale.
const monetaryPrecision int32 = 2

func WithinBudget(amount, budget float64) bool {
	amountDecimal := decimal.NewFromFloat(amount).Round(monetaryPrecision)
	budgetDecimal := decimal.NewFromFloat(budget).Round(monetaryPrecision)

	return amountDecimal.LessThanOrEqual(budgetDecimal)
}

func RoundAmount(amount float64) float64 {
	rounded, _ := decimal.NewFromFloat(amount).Round(monetaryPrecision).Float64()
	return rounded
}
