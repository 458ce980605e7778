package observability

import (
	"testing"

	"github.com/Zhima-Mochi/courseshop/internal/observability"
)

type countingCounter struct{ n float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.n += d }

func TestNewFallsBackToNop(t *testing.T) {
	p := New(nil, nil, nil, nil)
	if p.Tracer() == nil || p.Logger() == nil || p.Metrics() == nil {
		t.Fatal("expected nop instruments")
	}
	p.Metrics().Counter(observability.MUsecaseRequests).Add(1)
}

func TestNewResolvesRegisteredInstruments(t *testing.T) {
	c := &countingCounter{}
	p := New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MAuthDecisions: c,
		observability.MHTTPRequests:  nil,
	}, nil)

	p.Metrics().Counter(observability.MAuthDecisions).Add(2)
	p.Metrics().Counter(observability.MHTTPRequests).Add(1)

	if c.n != 2 {
		t.Fatalf("expected registered counter to receive 2, got %v", c.n)
	}
}
