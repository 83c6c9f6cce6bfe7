// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
)

type stubHealth struct{ err error }

func (s stubHealth) Check(context.Context) error { return s.err }

func TestMetricsServer_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		health     HealthCheck
		wantStatus int
	}{
		{"no check", nil, http.StatusOK},
		{"healthy", stubHealth{}, http.StatusOK},
		{"redis down", stubHealth{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetricsServer(8080, "/metrics", tt.health)
			if err := m.Setup(metrics.Collectors()...); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestMetricsServer_ExposesDomainMetrics(t *testing.T) {
	metrics.CyclesCompleted.Inc()

	m := NewMetricsServer(8080, "/metrics", nil)
	if err := m.Setup(metrics.Collectors()...); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "laundry_pet_cycles_completed_total") {
		t.Error("expected laundry pet collectors in the scrape output")
	}
}
