package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCall(t *testing.T) {
	before := testutil.ToFloat64(OutboundCalls.WithLabelValues("slack", "error"))

	ObserveCall("slack", errors.New("boom"))
	ObserveCall("slack", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(OutboundCalls.WithLabelValues("slack", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(OutboundCalls.WithLabelValues("slack", "ok")), float64(1))
}

func TestRegistryGathers(t *testing.T) {
	HTTPRequests.WithLabelValues("GET", "/api/health", "200").Inc()

	families, err := Registry.Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["powerbrief_http_requests_total"])
}
