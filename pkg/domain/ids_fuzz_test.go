//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseCNPJ checks that parsing never panics and that every accepted value
// survives a format/parse round trip.
func FuzzParseCNPJ(f *testing.F) {
	f.Add("11222333000181")
	f.Add("11.222.333/0001-81")
	f.Add("00000000000000")
	f.Add("")
	f.Add("'; DROP TABLE company;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		c, err := ParseCNPJ(input)
		if err != nil {
			if !c.IsNil() {
				t.Error("rejected input produced a non-zero CNPJ")
			}
			return
		}
		if len(c.String()) != cnpjLength {
			t.Errorf("accepted CNPJ has %d digits", len(c.String()))
		}
		if allEqual(c.String()) {
			t.Error("accepted a repeated digit sequence")
		}
		roundTrip, err := ParseCNPJ(c.Formatted())
		if err != nil {
			t.Errorf("formatted CNPJ failed round-trip: %v", err)
		}
		if roundTrip != c {
			t.Error("round-trip changed CNPJ value")
		}
	})
}

// FuzzParseCPF checks that an accepted CPF never renders its raw digits.
func FuzzParseCPF(f *testing.F) {
	f.Add("52998224725")
	f.Add("529.982.247-25")
	f.Add("***.982.247-**")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		c, err := ParseCPF(input)
		if err != nil {
			return
		}
		if c.String() == c.Raw() {
			t.Error("String rendered the raw identifier")
		}
		if len(c.Masked()) != cpfLength {
			t.Errorf("masked form has length %d", len(c.Masked()))
		}
	})
}
