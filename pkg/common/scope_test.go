// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestScope_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	scope := ChildScopeFromRemoteScope(context.Background(), "lifecycle.StartCycle")
	scope.TraceTag("petId", "pet-1")
	scope.TraceError(errors.New("boom"))
	child := scope.NewChildScope("timer.Start")
	child.Finish()
	scope.Finish()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(spans))
	}
	if spans[1].Name() != "lifecycle.StartCycle" {
		t.Errorf("expected parent span last, got %s", spans[1].Name())
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("expected child span to be parented to the scope span")
	}
	if len(spans[1].Events()) != 1 {
		t.Errorf("expected the error to be recorded as an event, got %d events", len(spans[1].Events()))
	}
	if scope.TraceID == "" || scope.Log.Data[traceIdLogField] != scope.TraceID {
		t.Errorf("expected log entry tagged with trace id %q, got %v", scope.TraceID, scope.Log.Data)
	}
}

func TestNewTracerProvider(t *testing.T) {
	provider, err := NewTracerProvider("laundry-pet", "test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}

	if _, err := NewTracerProvider("laundry-pet", "test", "http://localhost:9411/api/v2/spans"); err != nil {
		t.Errorf("unexpected error with collector url: %v", err)
	}
}
