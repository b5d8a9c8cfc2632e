package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar/internal/identity"
	id "radar/pkg/domain"
)

func TestLink(t *testing.T) {
	snap, err := stagedSource().Load(context.Background())
	require.NoError(t, err)
	v, _ := Validate(snap)
	anon, err := identity.NewAnonymizer("pepper")
	require.NoError(t, err)

	ds := Link(v, anon)

	t.Run("servant match uses the masked digits before hashing", func(t *testing.T) {
		require.Len(t, ds.Partners, 2)
		assert.True(t, ds.Partners[0].IsCivilServant)
		assert.Equal(t, "MINISTERIO DA SAUDE", ds.Partners[0].ServantOrganization)
		assert.False(t, ds.Partners[1].IsCivilServant)
	})

	t.Run("individual identifiers are keyed hashes", func(t *testing.T) {
		assert.Equal(t, identity.HashIdentity("982247", "pepper"), ds.Partners[0].IdentifierHash)
		assert.Equal(t, identity.HashIdentity(rawID, "pepper"), ds.Donations[0].DonorIdentifier)
		assert.Equal(t, identity.HashIdentity("333444", "pepper"), ds.Sanctions[0].TargetIdentifier)
		assert.Equal(t, id.IdentifierIndividual, ds.Sanctions[0].TargetKind)
	})

	t.Run("no raw identifier survives", func(t *testing.T) {
		for _, p := range ds.Partners {
			assert.False(t, strings.Contains(p.IdentifierHash, "*"))
			assert.Len(t, p.IdentifierHash, 64)
		}
		for _, d := range ds.Donations {
			assert.NotContains(t, d.DonorIdentifier, rawID)
		}
	})

	assert.Equal(t, 4, anon.Distinct())
}
