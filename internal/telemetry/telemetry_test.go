package telemetry

import (
	"testing"
	"time"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector(true)
	c.Counter("deploy.cancelled", 1, nil)
	c.Timer("step.probe", 120*time.Millisecond, map[string]string{"source": "remote"})

	metrics := c.GetMetrics()
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	if metrics[1].Type != Timer || metrics[1].Value != 120 || metrics[1].Unit != "ms" {
		t.Fatalf("unexpected timer metric: %+v", metrics[1])
	}

	c.Flush()
	if n := len(c.GetMetrics()); n != 0 {
		t.Fatalf("expected metrics cleared after flush, got %d", n)
	}
}

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(false)
	stop := c.Time("step.deploy", nil)
	stop()
	if n := len(c.GetMetrics()); n != 0 {
		t.Fatalf("disabled collector recorded %d metrics", n)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Counter("x", 1, nil)
	c.Flush()
}
