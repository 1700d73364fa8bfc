// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

const namespace = "watermyplant"

// Metrics holds the application's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RegisterTotal        *prometheus.CounterVec
	LoginTotal           *prometheus.CounterVec
	PlantsCreated        prometheus.Counter
	PlantsDeleted        prometheus.Counter
	WateringEvents       *prometheus.CounterVec
	DatabaseQueryLatency *prometheus.HistogramVec
	RedisErrors          *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry, including the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RegisterTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_register_total",
			Help:      "Registration attempts by result",
		}, []string{"result"}),
		LoginTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		PlantsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plants_created_total",
			Help:      "Total number of plants created",
		}),
		PlantsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plants_deleted_total",
			Help:      "Total number of plants deleted",
		}),
		WateringEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watering_events_recorded_total",
			Help:      "Watering events recorded, split by fertilizer use",
		}, []string{"fertilizer"}),
		DatabaseQueryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_query_latency_seconds",
			Help:      "Database query latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "table"}),
		RedisErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_errors_total",
			Help:      "Total number of Redis errors by command",
		}, []string{"operation"}),
	}
}

// ObserveRegister counts a registration attempt.
func (m *Metrics) ObserveRegister(result string) {
	if m == nil {
		return
	}
	m.RegisterTotal.WithLabelValues(result).Inc()
}

// ObserveLogin counts a login attempt.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginTotal.WithLabelValues(result).Inc()
}

// PlantCreated counts a created plant.
func (m *Metrics) PlantCreated() {
	if m == nil {
		return
	}
	m.PlantsCreated.Inc()
}

// PlantDeleted counts a deleted plant.
func (m *Metrics) PlantDeleted() {
	if m == nil {
		return
	}
	m.PlantsDeleted.Inc()
}

// WateringRecorded counts a recorded watering event.
func (m *Metrics) WateringRecorded(fertilizer bool) {
	if m == nil {
		return
	}
	label := "no"
	if fertilizer {
		label = "yes"
	}
	m.WateringEvents.WithLabelValues(label).Inc()
}

// RedisError counts a failed Redis command.
func (m *Metrics) RedisError(operation string) {
	if m == nil {
		return
	}
	m.RedisErrors.WithLabelValues(operation).Inc()
}

const queryStartKey = "observability:query_start"

// InstrumentDB registers gorm callbacks that feed DatabaseQueryLatency.
func (m *Metrics) InstrumentDB(db *gorm.DB) error {
	if m == nil || db == nil {
		return nil
	}

	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			m.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", a)
		}},
		{"query", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", a)
		}},
		{"update", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", a)
		}},
		{"delete", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", a)
		}},
		{"row", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register(name+":after", a)
		}},
	}

	for _, s := range steps {
		if err := s.register("metrics:"+s.op, before, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
