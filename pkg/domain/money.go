package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	dErrors "radar/pkg/domain-errors"
)

// Money is an exact, non-negative amount in reais.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney is R$0,00.
var ZeroMoney = Money{amount: decimal.Zero}

// NewMoney rejects negative amounts.
func NewMoney(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "monetary value cannot be negative")
	}
	return Money{amount: d}, nil
}

// dotGrouped matches integers written with dot thousands separators.
var dotGrouped = regexp.MustCompile(`^[1-9][0-9]{0,2}(\.[0-9]{3})+$`)

// ParseMoney accepts "1234.56" and the Brazilian "1.234,56" notation. Without
// a comma, several dot groups ("1.234.567") are thousands separators, and a
// single group ("10.000") is rejected because it reads both ways.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "monetary value is empty")
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case dotGrouped.MatchString(s):
		if strings.Count(s, ".") == 1 {
			return Money{}, dErrors.New(dErrors.CodeInvalidInput, "monetary value is ambiguous: use a decimal comma or no grouping")
		}
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "monetary value is not a decimal")
	}
	return NewMoney(d)
}

// MustMoney is ParseMoney for literals; it panics on invalid input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

func (m Money) GreaterThan(o Money) bool {
	return m.amount.GreaterThan(o.amount)
}

func (m Money) LessThan(o Money) bool {
	return m.amount.LessThan(o.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// String renders two decimal places, e.g. "150000.00".
func (m Money) String() string {
	return m.amount.StringFixed(2)
}
