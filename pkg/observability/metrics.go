package observability

import (
	"context"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "proofweave"

// Metrics holds the collectors fed by workspace hooks.
type Metrics struct {
	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	RunsDiscarded prometheus.Counter
	Mutations     *prometheus.CounterVec
	OpenGoals     *prometheus.GaugeVec
	Fallbacks     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Evaluator runs that completed, by status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of evaluator runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		RunsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_discarded_total",
			Help:      "Evaluator runs ignored because a newer edit superseded them.",
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Workspace edits, by kind.",
		}, []string{"kind"}),
		OpenGoals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_goals",
			Help:      "Open goals after the latest reconciliation, per workspace.",
		}, []string{"workspace"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_fallbacks_total",
			Help:      "Evaluator edges whose user metadata could not be recovered.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Runs, m.RunDuration, m.RunsDiscarded, m.Mutations, m.OpenGoals, m.Fallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(_ context.Context, e *domain.MutationEvent) {
			m.Mutations.WithLabelValues(string(e.Kind)).Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues(runStatus(e.Err)).Inc()
			m.RunDuration.Observe(e.Duration.Seconds())
		},
		OnRunDiscarded: func(_ context.Context, e *domain.RunEvent) {
			m.RunsDiscarded.Inc()
		},
		OnReconcile: func(_ context.Context, e *domain.ReconcileEvent) {
			m.OpenGoals.WithLabelValues(e.WorkspaceID).Set(float64(e.OpenGoals))
			m.Fallbacks.Add(float64(len(e.Diagnostics)))
		},
	}
}

// Forget drops the per-workspace series of a deleted workspace.
func (m *Metrics) Forget(workspaceID string) {
	m.OpenGoals.DeleteLabelValues(workspaceID)
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isExecutionError(err):
		return "rejected"
	default:
		return "failed"
	}
}
