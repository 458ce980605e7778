package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/courseshop/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}
	if got := FromOr(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger, got %#v", got)
	}
	if got := FromOr(context.Background(), nil); got == nil {
		t.Fatal("expected nop logger when fallback is nil")
	}
}

func TestEnrichAddsFields(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}
	ctx := With(context.Background(), base)
	ctx = Enrich(ctx, observability.F("user_id", "u-1"))

	got, ok := From(ctx).(*recordingLogger)
	if !ok {
		t.Fatalf("unexpected logger type %T", From(ctx))
	}
	if len(got.fields) != 1 || got.fields[0].Key != "user_id" || got.fields[0].Value != "u-1" {
		t.Fatalf("unexpected fields %#v", got.fields)
	}
}

func TestEnrichWithoutLogger(t *testing.T) {
	ctx := context.Background()
	if Enrich(ctx, observability.F("k", "v")) != ctx {
		t.Fatal("expected context without logger to be returned unchanged")
	}
}
