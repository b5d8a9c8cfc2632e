package domain

import (
	"fmt"

	dErrors "radar/pkg/domain-errors"
)

const cnpjLength = 14

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CNPJ is a verified 14-digit company identifier.
// Invariant: digits always passes the modulo-11 check and is never all-equal.
//
// Construct via ParseCNPJ at trust boundaries; the zero value is "absent".
// Equality is value-based: two CNPJs parsed from differently punctuated input
// compare equal and may be used as map keys.
type CNPJ struct {
	digits string
}

// ParseCNPJ strips punctuation and validates length and check digits.
//
// Errors: returns CodeInvalidInput for wrong length, repeated digits or a
// failed check digit.
func ParseCNPJ(s string) (CNPJ, error) {
	d := digitsOnly(s)
	if len(d) != cnpjLength {
		return CNPJ{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("cnpj must have %d digits, got %d", cnpjLength, len(d)))
	}
	if allEqual(d) {
		return CNPJ{}, dErrors.New(dErrors.CodeInvalidInput, "cnpj cannot be a repeated digit sequence")
	}
	if !validCheckDigits(d, cnpjWeights1, cnpjWeights2) {
		return CNPJ{}, dErrors.New(dErrors.CodeInvalidInput, "cnpj check digits do not match")
	}
	return CNPJ{digits: d}, nil
}

// MustParseCNPJ is ParseCNPJ for literals in tests and static tables.
func MustParseCNPJ(s string) CNPJ {
	c, err := ParseCNPJ(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the 14 bare digits.
func (c CNPJ) String() string {
	return c.digits
}

// Formatted renders the conventional 00.000.000/0000-00 mask.
func (c CNPJ) Formatted() string {
	if c.IsNil() {
		return ""
	}
	d := c.digits
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// Root returns the 8-digit base shared by a head office and its branches.
func (c CNPJ) Root() string {
	if c.IsNil() {
		return ""
	}
	return c.digits[:8]
}

func (c CNPJ) IsNil() bool {
	return c.digits == ""
}

func (c CNPJ) MarshalText() ([]byte, error) {
	return []byte(c.digits), nil
}

func (c *CNPJ) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = CNPJ{}
		return nil
	}
	parsed, err := ParseCNPJ(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
