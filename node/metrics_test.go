package node

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics("hierachain")
	b := NewMetrics("hierachain")

	a.RecordQuery(false)
	a.RecordQuery(true)

	if got := testutil.ToFloat64(a.QueriesTotal); got != 2 {
		t.Errorf("Expected 2 queries, got %v", got)
	}
	if got := testutil.ToFloat64(a.QueriesFailed); got != 1 {
		t.Errorf("Expected 1 failed query, got %v", got)
	}
	if got := testutil.ToFloat64(b.QueriesTotal); got != 0 {
		t.Errorf("Second registry polluted: %v queries", got)
	}
}

func TestMetricsRecordBlock(t *testing.T) {
	m := NewMetrics("hierachain")

	m.RecordBlock(7)
	m.RecordBlock(3)

	if got := testutil.ToFloat64(m.BlocksTotal); got != 2 {
		t.Errorf("Expected 2 blocks, got %v", got)
	}
}

func TestMetricsServerStartStop(t *testing.T) {
	m := NewMetrics("hierachain")
	srv := NewMetricsServer("127.0.0.1:0", m)

	srv.StartAsync()
	if err := srv.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
