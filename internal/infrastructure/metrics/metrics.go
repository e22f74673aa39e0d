package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GenealogyMetrics holds every collector of the genealogy service.
type GenealogyMetrics struct {
	// Placement
	PlacementsTotal       *prometheus.CounterVec
	PlacementRetriesTotal prometheus.Counter
	PlacementDepth        prometheus.Histogram

	// Reconciliation
	ReconciliationRunsTotal        *prometheus.CounterVec
	ReconciliationCorrectionsTotal *prometheus.CounterVec
	ReconciliationSkippedTotal     prometheus.Counter
	ReconciliationDuration         *prometheus.HistogramVec
	ChainLength                    prometheus.Histogram
	OrphansTotal                   prometheus.Counter
	IntegrityIssuesTotal           *prometheus.CounterVec

	// Volume
	VolumeCreditedBV *prometheus.CounterVec

	// Events
	EventsConsumedTotal *prometheus.CounterVec

	Population prometheus.Gauge
}

func NewGenealogyMetrics(reg prometheus.Registerer) *GenealogyMetrics {
	factory := promauto.With(reg)
	return &GenealogyMetrics{
		PlacementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genealogy_placements_total",
				Help: "Placement attempts by outcome",
			},
			[]string{"outcome"},
		),
		PlacementRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "genealogy_placement_retries_total",
			Help: "Placements retried after a concurrent slot conflict",
		}),
		PlacementDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "genealogy_placement_depth",
			Help:    "Levels below the sponsor a recruit was placed at",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55},
		}),

		ReconciliationRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genealogy_reconciliation_runs_total",
				Help: "Reconciliation runs by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		ReconciliationCorrectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genealogy_reconciliation_corrections_total",
				Help: "Members whose stored ledgers were rewritten",
			},
			[]string{"mode"},
		),
		ReconciliationSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "genealogy_reconciliation_skipped_total",
			Help: "Batch corrections skipped because the row changed after the snapshot",
		}),
		ReconciliationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genealogy_reconciliation_duration_seconds",
				Help:    "Reconciliation duration",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"mode"},
		),
		ChainLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "genealogy_chain_updated_members",
			Help:    "Members rewritten by one incremental reconciliation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		OrphansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "genealogy_orphan_descendants_total",
			Help: "Members not placed below their sponsor",
		}),
		IntegrityIssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genealogy_integrity_issues_total",
				Help: "Structural defects found by batch reconciliation",
			},
			[]string{"kind"},
		),

		VolumeCreditedBV: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genealogy_volume_credited_bv_total",
				Help: "Business volume credited to personal ledgers",
			},
			[]string{"entry_type"},
		),

		EventsConsumedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genealogy_events_consumed_total",
				Help: "Consumed events by topic and outcome",
			},
			[]string{"topic", "outcome"},
		),

		Population: factory.NewGauge(prometheus.GaugeOpts{
			Name: "genealogy_population",
			Help: "Members seen by the last batch reconciliation",
		}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *GenealogyMetrics) RecordPlacement(depth int, retries int, err error) {
	m.PlacementsTotal.WithLabelValues(outcome(err)).Inc()
	m.PlacementRetriesTotal.Add(float64(retries))
	if err == nil {
		m.PlacementDepth.Observe(float64(depth))
	}
}

func (m *GenealogyMetrics) RecordChain(mode string, updated int, started time.Time, err error) {
	m.ReconciliationRunsTotal.WithLabelValues(mode, outcome(err)).Inc()
	m.ReconciliationDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
	if err == nil {
		m.ChainLength.Observe(float64(updated))
	}
}

func (m *GenealogyMetrics) RecordBatch(population, corrections, skipped, orphans int, issues map[string]int, started time.Time, err error) {
	m.ReconciliationRunsTotal.WithLabelValues("batch", outcome(err)).Inc()
	m.ReconciliationDuration.WithLabelValues("batch").Observe(time.Since(started).Seconds())
	if err != nil {
		return
	}
	m.Population.Set(float64(population))
	m.ReconciliationCorrectionsTotal.WithLabelValues("batch").Add(float64(corrections))
	m.ReconciliationSkippedTotal.Add(float64(skipped))
	m.OrphansTotal.Add(float64(orphans))
	for kind, n := range issues {
		m.IntegrityIssuesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *GenealogyMetrics) RecordCredit(entryType string, bv float64) {
	m.VolumeCreditedBV.WithLabelValues(entryType).Add(bv)
}

func (m *GenealogyMetrics) RecordEvent(topic string, err error) {
	m.EventsConsumedTotal.WithLabelValues(topic, outcome(err)).Inc()
}
