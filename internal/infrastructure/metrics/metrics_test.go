package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/v1/health/", "200"))

	RecordRequest("GET", "/api/v1/health/", "200", 0.01)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/v1/health/", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordLoginAndCSRF(t *testing.T) {
	before := testutil.ToFloat64(LoginsTotal.WithLabelValues("rejected"))
	beforeCSRF := testutil.ToFloat64(CSRFRejectionsTotal)

	RecordLogin("rejected")
	RecordCSRFRejection()

	assert.Equal(t, before+1, testutil.ToFloat64(LoginsTotal.WithLabelValues("rejected")))
	assert.Equal(t, beforeCSRF+1, testutil.ToFloat64(CSRFRejectionsTotal))
}
