package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Shared()
	m.Shared()
	m.Submitted(OutcomeSubmitted)
	m.Submitted(OutcomeGatewayError)
	m.Submitted(OutcomeGatewayError)
	m.ObserveGateway(150 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ShareClicks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(OutcomeSubmitted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues(OutcomeGatewayError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.GatewayDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Shared()
		m.Submitted(OutcomeInvalid)
		m.ObserveGateway(time.Second)
	})
}
