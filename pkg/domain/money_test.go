package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "radar/pkg/domain-errors"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"150000", "150000.00", false},
		{"150000.5", "150000.50", false},
		{"1.234,56", "1234.56", false},
		{"R$ 800,00", "800.00", false},
		{"0", "0.00", false},
		{"10.000,00", "10000.00", false},
		{"1.234.567", "1234567.00", false},
		{"0.500", "0.50", false},
		{"10000.000", "10000.00", false},
		{"10.000", "", true},
		{"1.500", "", true},
		{"-1", "", true},
		{"-0,01", "", true},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseMoney(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMoney_ExactArithmetic(t *testing.T) {
	// 0.1 + 0.2 is the classic float trap; decimals must stay exact.
	sum := MustMoney("0.1").Add(MustMoney("0.2"))
	assert.True(t, sum.Decimal().Equal(decimal.RequireFromString("0.3")))

	assert.True(t, MustMoney("9999.99").LessThan(MustMoney("10000")))
	assert.False(t, MustMoney("10000").LessThan(MustMoney("10000")))
	assert.True(t, MustMoney("100000.01").GreaterThan(MustMoney("100000")))
	assert.Equal(t, 0, MustMoney("10.0").Cmp(MustMoney("10")))
	assert.True(t, ZeroMoney.IsZero())
}

func TestNewMoney_RejectsNegative(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(-5))
	require.Error(t, err)

	m, err := NewMoney(decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, "5.00", m.String())
}
