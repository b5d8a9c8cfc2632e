package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "radar/pkg/domain-errors"
)

func TestParseCPF_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"bare digits", "52998224725", false},
		{"formatted", "529.982.247-25", false},
		{"another valid", "111.444.777-35", false},
		{"bad check digit", "52998224726", true},
		{"repeated digits", "111.111.111-11", true},
		{"masked source value", "***.982.247-**", true},
		{"company length", "11222333000181", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCPF(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
		})
	}
}

// TestCPF_NeverRendersInFull encodes the compliance invariant: no display path
// may reveal all eleven digits.
func TestCPF_NeverRendersInFull(t *testing.T) {
	c, err := ParseCPF("529.982.247-25")
	require.NoError(t, err)

	const full = "52998224725"
	const masked = "***982247**"

	assert.Equal(t, masked, c.Masked())
	assert.Equal(t, "982247", c.VisibleDigits())

	renderings := map[string]string{
		"String": c.String(),
		"%v":     fmt.Sprintf("%v", c),
		"%+v":    fmt.Sprintf("%+v", c),
		"%#v":    fmt.Sprintf("%#v", c),
		"%s":     fmt.Sprintf("%s", c),
		"%d":     fmt.Sprintf("%d", c),
		"%x":     fmt.Sprintf("%x", c),
		"%q":     fmt.Sprintf("%q", c),
	}
	for verb, out := range renderings {
		assert.NotContains(t, out, full, "verb %s leaked the identifier", verb)
		assert.Contains(t, out, masked, "verb %s lost the masked form", verb)
	}

	encoded, err := json.Marshal(struct{ ID CPF }{ID: c})
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), full)
	assert.Contains(t, string(encoded), masked)
}

func TestCPF_ValueEquality(t *testing.T) {
	a, err := ParseCPF("111.444.777-35")
	require.NoError(t, err)
	b, err := ParseCPF("11144477735")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "11144477735", a.Raw())
}
