package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGenealogyMetrics_Record(t *testing.T) {
	m := metrics.NewGenealogyMetrics(prometheus.NewRegistry())

	m.RecordPlacement(2, 1, nil)
	m.RecordPlacement(0, 3, errors.New("conflict"))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PlacementsTotal.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PlacementsTotal.WithLabelValues("error")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.PlacementRetriesTotal))

	m.RecordBatch(10, 3, 1, 2, map[string]int{"cycle": 1}, time.Now(), nil)
	require.Equal(t, 10.0, testutil.ToFloat64(m.Population))
	require.Equal(t, 3.0, testutil.ToFloat64(m.ReconciliationCorrectionsTotal.WithLabelValues("batch")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityIssuesTotal.WithLabelValues("cycle")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.OrphansTotal))

	m.RecordEvent("member-status-events", nil)
	require.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumedTotal.WithLabelValues("member-status-events", "ok")))
}
