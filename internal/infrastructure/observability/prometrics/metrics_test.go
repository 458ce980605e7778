package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "", "")

	a := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	b := r.Counter("usecase_requests_total", "help", "use_case", "outcome")

	a.Add(1, observability.L("use_case", "order.create"), observability.L("outcome", "success"))
	b.Add(2, observability.L("use_case", "order.create"), observability.L("outcome", "success"))

	cv := a.(*counter).v
	if got := testutil.ToFloat64(cv.WithLabelValues("order.create", "success")); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestStandardRegistersAllKeys(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New(reg, "courseshop", ""))

	for _, key := range []observability.MetricKey{
		observability.MUsecaseRequests,
		observability.MExternalRequests,
		observability.MHTTPRequests,
		observability.MAuthDecisions,
	} {
		if counters[key] == nil {
			t.Fatalf("missing counter %s", key)
		}
	}
	for _, key := range []observability.MetricKey{
		observability.MUsecaseDuration,
		observability.MExternalRequestDuration,
		observability.MHTTPRequestDuration,
	} {
		if histograms[key] == nil {
			t.Fatalf("missing histogram %s", key)
		}
	}

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.create"))
	if n, err := testutil.GatherAndCount(reg, "courseshop_usecase_duration_seconds"); err != nil || n != 1 {
		t.Fatalf("expected one histogram series, got %d (%v)", n, err)
	}
}
