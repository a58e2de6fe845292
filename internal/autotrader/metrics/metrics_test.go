package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantedge/scheduler-core/internal/autotrader/candidates"
)

func TestRecordScannerOutcome_ExposesCountersViaHandler(t *testing.T) {
	m := New()
	m.RecordScannerOutcome(candidates.ScannerOutcome{
		Executed: []string{"t1", "t2"},
		Skipped:  map[string]int{"allocation_cap": 3},
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `autotrader_candidates_executed_total{source="scanner"} 2`)
	assert.Contains(t, body, `autotrader_candidates_skipped_total{reason="allocation_cap",source="scanner"} 3`)
}

func TestObserveCycle_RecordsHistogramSample(t *testing.T) {
	m := New()
	m.ObserveCycle("ok", 1.5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `autotrader_cycle_duration_seconds_count{result="ok"} 1`)
}

func TestRecordPendingOrder_AccumulatesDeployedDollars(t *testing.T) {
	m := New()
	m.RecordPendingOrder(5000)
	m.RecordPendingOrder(1250.5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `autotrader_deployed_dollars_total 6250.5`)
}
