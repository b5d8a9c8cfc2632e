package domain

import "strings"

// digitsOnly drops every non-digit rune, so "11.222.333/0001-81" and
// "11222333000181" parse to the same value.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allEqual(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// mod11 computes one Brazilian check digit over digits with the given weights:
// remainder < 2 yields 0, otherwise 11 - remainder.
func mod11(digits string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + 11 - rem)
}

// validCheckDigits verifies the two trailing check digits. w1 covers the base,
// w2 covers the base plus the first check digit.
func validCheckDigits(digits string, w1, w2 []int) bool {
	n := len(digits)
	if mod11(digits, w1) != digits[n-2] {
		return false
	}
	return mod11(digits, w2) == digits[n-1]
}
