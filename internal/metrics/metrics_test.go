package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if pipelineRunsTotal == nil || retryAttemptsTotal == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObservePipeline(t *testing.T) {
	Init()
	before := testutil.ToFloat64(pipelineRunsTotal.WithLabelValues("unit-success"))
	ObservePipeline("unit-success")
	if val := testutil.ToFloat64(pipelineRunsTotal.WithLabelValues("unit-success")); val != before+1 {
		t.Errorf("Expected pipeline counter to grow by 1, got %f -> %f", before, val)
	}
}

func TestObserveRetryAndDegradation(t *testing.T) {
	ObserveRetry("unit-op")
	ObserveRetry("unit-op")
	if val := testutil.ToFloat64(retryAttemptsTotal.WithLabelValues("unit-op")); val != 2 {
		t.Errorf("Expected 2 retry attempts, got %f", val)
	}
	ObserveDegradation("unit-step")
	if val := testutil.ToFloat64(degradationsTotal.WithLabelValues("unit-step")); val != 1 {
		t.Errorf("Expected 1 degradation, got %f", val)
	}
}

func TestObserveHistograms(t *testing.T) {
	ObserveStep("unit", 2*time.Second)
	ObserveDeployWait("reachable", 10*time.Second)
	if val := testutil.CollectAndCount(pipelineStepDuration); val <= 0 {
		t.Errorf("Expected step histogram to be observed, got %d", val)
	}
	if val := testutil.CollectAndCount(deployWaitSeconds); val <= 0 {
		t.Errorf("Expected deploy wait histogram to be observed, got %d", val)
	}
}

func TestObserveRateLimited(t *testing.T) {
	Init()
	before := testutil.ToFloat64(rateLimitedTotal.WithLabelValues("/unit"))
	ObserveRateLimited("/unit")
	if val := testutil.ToFloat64(rateLimitedTotal.WithLabelValues("/unit")); val != before+1 {
		t.Errorf("Expected rate limited counter to grow by 1, got %f -> %f", before, val)
	}
}
