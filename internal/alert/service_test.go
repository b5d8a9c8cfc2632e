package alert

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar/internal/alert/metrics"
)

func TestService_DetectAllRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := New(WithMetrics(metrics.New(reg)))

	alerts, err := svc.DetectAll(context.Background(), parityPopulation(), ref, detectedAt)
	require.NoError(t, err)
	require.Len(t, alerts, 4)

	expected := `
# HELP radar_alert_emitted_total Total alerts emitted by type and severity
# TYPE radar_alert_emitted_total counter
radar_alert_emitted_total{severity="GRAVE",type="donation_with_contract"} 1
radar_alert_emitted_total{severity="GRAVE",type="sanctioned_partner"} 1
radar_alert_emitted_total{severity="GRAVISSIMO",type="active_sanction_with_contract"} 1
radar_alert_emitted_total{severity="GRAVISSIMO",type="civil_servant_partner"} 1
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "radar_alert_emitted_total"))
}

func TestService_NilMetricsIsSafe(t *testing.T) {
	_, err := New().DetectAll(context.Background(), Population{}, ref, detectedAt)
	assert.NoError(t, err)
}
