package domain

import (
	"fmt"

	dErrors "radar/pkg/domain-errors"
)

const cpfLength = 11

var (
	cpfWeights1 = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2 = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CPF is a verified 11-digit individual identifier.
//
// The full value never renders through fmt, JSON or text marshalling: every
// display path produces the masked form ***DDDDDD** (digits 4 to 9 visible).
// Raw exists only to feed the keyed hash in internal/identity.
type CPF struct {
	digits string
}

// ParseCPF strips punctuation and validates length and check digits.
func ParseCPF(s string) (CPF, error) {
	d := digitsOnly(s)
	if len(d) != cpfLength {
		return CPF{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("cpf must have %d digits, got %d", cpfLength, len(d)))
	}
	if allEqual(d) {
		return CPF{}, dErrors.New(dErrors.CodeInvalidInput, "cpf cannot be a repeated digit sequence")
	}
	if !validCheckDigits(d, cpfWeights1, cpfWeights2) {
		return CPF{}, dErrors.New(dErrors.CodeInvalidInput, "cpf check digits do not match")
	}
	return CPF{digits: d}, nil
}

// Masked returns ***DDDDDD**, the only display form of a CPF.
func (c CPF) Masked() string {
	if c.IsNil() {
		return ""
	}
	return "***" + c.digits[3:9] + "**"
}

// VisibleDigits returns the six digits published by sources that mask CPFs.
func (c CPF) VisibleDigits() string {
	if c.IsNil() {
		return ""
	}
	return c.digits[3:9]
}

// Raw exposes the bare digits for keyed hashing. Never log or persist it.
func (c CPF) Raw() string {
	return c.digits
}

func (c CPF) IsNil() bool {
	return c.digits == ""
}

func (c CPF) String() string {
	return c.Masked()
}

func (c CPF) GoString() string {
	return "domain.CPF(" + c.Masked() + ")"
}

// Format makes every verb (%d and %x included) print the masked form.
func (c CPF) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(c.Masked()))
}

func (c CPF) MarshalText() ([]byte, error) {
	return []byte(c.Masked()), nil
}
