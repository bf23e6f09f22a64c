package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAlertsCounter(t *testing.T) {
	before := testutil.ToFloat64(AlertsTotal.WithLabelValues("sent"))
	AlertsTotal.WithLabelValues("sent").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AlertsTotal.WithLabelValues("sent")))
}

func TestLastOFIGauge(t *testing.T) {
	LastOFI.Set(-6.5)
	assert.Equal(t, -6.5, testutil.ToFloat64(LastOFI))
}
