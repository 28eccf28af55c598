package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordDecision("murad", "BUY", 72.5)
	r.RecordDecision("murad", "BUY", 80)
	r.RecordDecision("bizyugo", "AVOID", 20)
	r.RecordAction("GET_DECISION", true)
	r.RecordAction("GET_DECISION", false)
	r.RecordMessageSent("kafka")
	r.RecordError("upstream")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.decisions.WithLabelValues("BUY", "murad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("AVOID", "bizyugo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actions.WithLabelValues("GET_DECISION", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.messagesSent.WithLabelValues("kafka")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("upstream")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.totalScore))
}
