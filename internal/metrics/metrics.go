// Package metrics exports whiteboard lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several collectors can coexist in one
// process (tests, embedded servers).
type Collector struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	turns        *prometheus.CounterVec
	stepsPerTurn prometheus.Histogram
}

// New creates a collector and registers its metrics together with the Go and
// process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_tool_calls_total",
				Help: "Total number of executed tool calls",
			},
			[]string{"tool_name", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whiteboard_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"tool_name"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whiteboard_turns_total",
				Help: "Total number of model turns",
			},
			[]string{"outcome"},
		),
		stepsPerTurn: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "whiteboard_turn_tool_calls",
				Help:    "Tool calls requested per model turn",
				Buckets: prometheus.LinearBuckets(0, 1, 8),
			},
		),
	}
	c.registry.MustRegister(
		c.toolCalls,
		c.toolDuration,
		c.turns,
		c.stepsPerTurn,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Hooks returns lifecycle hooks that record into the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			c.toolCalls.WithLabelValues(e.ToolName, outcome).Inc()
			c.toolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			outcome := "ok"
			switch {
			case e.Error != "":
				outcome = "error"
			case e.Continued:
				outcome = "continued"
			}
			c.turns.WithLabelValues(outcome).Inc()
			c.stepsPerTurn.Observe(float64(e.ToolCalls))
		},
	}
}
