package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "radar/pkg/domain-errors"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("RADAR_IDENTITY_SALT", "pepper")
	t.Setenv("RADAR_STAGING_URL", "postgres://radar@localhost/radar_staging")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultArtifactPath, cfg.ArtifactPath)
	assert.Equal(t, 6, cfg.DownloadConcurrency)
	assert.Equal(t, 50000, cfg.GraphMaxNodes)
	assert.True(t, cfg.ReferenceDate.IsZero())
	assert.Empty(t, cfg.Sources)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("RADAR_IDENTITY_SALT", "pepper")
	t.Setenv("RADAR_REFERENCE_DATE", "2024-06-30")
	t.Setenv("RADAR_DOWNLOAD_CONCURRENCY", "3")
	t.Setenv("RADAR_SOURCES", "companies=https://example.org/a.zip, contracts=https://example.org/b.csv")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), cfg.ReferenceDate)
	assert.Equal(t, 3, cfg.DownloadConcurrency)
	assert.Equal(t, []Source{
		{Name: "companies", URL: "https://example.org/a.zip"},
		{Name: "contracts", URL: "https://example.org/b.csv"},
	}, cfg.Sources)
}

func TestFromEnv_Malformed(t *testing.T) {
	tests := map[string]string{
		"RADAR_REFERENCE_DATE":       "30/06/2024",
		"RADAR_GRAPH_MAX_NODES":      "many",
		"RADAR_SOURCES":              "companies",
		"RADAR_DOWNLOAD_CONCURRENCY": "1.5",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConfig))
		})
	}
}

func TestValidate_RefusesEmptySalt(t *testing.T) {
	for _, salt := range []string{"", "   "} {
		cfg := Pipeline{IdentitySalt: salt, StagingURL: "postgres://x", ArtifactPath: "x", DownloadConcurrency: 1, GraphMaxNodes: 1}
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfig))
	}
}

func TestValidate_RequiresStaging(t *testing.T) {
	cfg := Pipeline{IdentitySalt: "pepper", ArtifactPath: "x", DownloadConcurrency: 1, GraphMaxNodes: 1}
	assert.True(t, dErrors.HasCode(cfg.Validate(), dErrors.CodeConfig))
}
