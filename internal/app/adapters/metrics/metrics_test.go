package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	before := testutil.ToFloat64(Notifications.WithLabelValues("bits", "chan"))
	Notifications.WithLabelValues("bits", "chan").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Notifications.WithLabelValues("bits", "chan")))

	IRCConnected.Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(IRCConnected))

	PendingGifts.WithLabelValues("mass").Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(PendingGifts.WithLabelValues("mass")))
}
