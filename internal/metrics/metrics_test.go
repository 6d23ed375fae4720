package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestApplicationSubmissionsCounter(t *testing.T) {
	before := testutil.ToFloat64(ApplicationSubmissions.WithLabelValues(OutcomeSuccess))
	ApplicationSubmissions.WithLabelValues(OutcomeSuccess).Inc()
	after := testutil.ToFloat64(ApplicationSubmissions.WithLabelValues(OutcomeSuccess))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	GuardRedirects.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jobboard_guard_redirects_total") {
		t.Fatal("expected guard redirect counter in exposition")
	}
}
