package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecallFailuresCounter(t *testing.T) {
	c := RecallFailures.WithLabelValues("unit-test", "timeout")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestPushWithoutURLIsNoop(t *testing.T) {
	if err := Push("", "job"); err != nil {
		t.Errorf("Push with empty url: %v", err)
	}
}
