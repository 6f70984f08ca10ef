package services

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// amountLimit - первая сумма, не помещающаяся в NUMERIC(15,2).
var amountLimit = decimal.New(1, 13)

// ApplyFee округляет бюджет до копеек и возвращает его вместе с суммой с комиссией.
// Округление - половина вверх (для положительных сумм совпадает с decimal.Round).
func ApplyFee(budget, rate decimal.Decimal) (rounded, withFee decimal.Decimal) {
	rounded = budget.Round(2)
	withFee = rounded.Mul(one.Add(rate)).Round(2)
	return rounded, withFee
}
