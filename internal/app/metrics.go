package app

import (
	"sync"

	"github.com/dkeye/Conference/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what happens to the views. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	actions  *prometheus.CounterVec
	rooms    prometheus.Gauge
	sessions prometheus.Gauge
	dropped  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_actions_total",
			Help: "Total number of actions applied to session views",
		}, []string{"type"}),
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Name: "conference_rooms_active",
			Help: "Number of open rooms",
		}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "conference_sessions_active",
			Help: "Number of signaling sessions with a view",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "conference_state_frames_dropped_total",
			Help: "Total number of state frames dropped on slow connections",
		}),
	}
}

func (m *Metrics) ObserveAction(a core.Action) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(string(a.Type())).Inc()
}

// Watch counts every action dispatched into st until the returned func is
// called.
func (m *Metrics) Watch(st *core.Store) (stop func()) {
	if m == nil {
		return func() {}
	}
	m.sessions.Inc()
	unsubscribe := st.Subscribe(m.ObserveAction)
	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			m.sessions.Dec()
		})
	}
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(n))
}

func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.Add(float64(n))
}
