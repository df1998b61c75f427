//go:build !integration

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(turnsTotal.WithLabelValues("none", "reply"))
	IncTurn(" NONE ", "Reply")
	if got := testutil.ToFloat64(turnsTotal.WithLabelValues("none", "reply")); got != before+1 {
		t.Errorf("expected turn counter %v, got %v", before+1, got)
	}

	beforeFailed := testutil.ToFloat64(provisionStepsTotal.WithLabelValues("network_interface", "failed"))
	IncProvisionStep("network_interface", false)
	if got := testutil.ToFloat64(provisionStepsTotal.WithLabelValues("network_interface", "failed")); got != beforeFailed+1 {
		t.Errorf("expected failed step counter %v, got %v", beforeFailed+1, got)
	}
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	MustRegister()
	MustRegister() // idempotent

	IncSessionOp("get", "miss")
	ObserveProvisioning(2*time.Second, true)
	SetBuildInfo("test", "abc")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"session_store_ops_total", "provisioning_duration_seconds", "build_info"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output is missing %s", name)
		}
	}
}
