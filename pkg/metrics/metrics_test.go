package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncrementSubmission(t *testing.T) {
	before := testutil.ToFloat64(SubmissionCount.WithLabelValues("metrics-test", "accepted"))
	IncrementSubmission("metrics-test", "accepted")
	IncrementSubmission("metrics-test", "accepted")
	after := testutil.ToFloat64(SubmissionCount.WithLabelValues("metrics-test", "accepted"))
	assert.Equal(t, before+2, after)
}

func TestIncrementIdentityProbe(t *testing.T) {
	before := testutil.ToFloat64(IdentityProbeCount.WithLabelValues("timeout"))
	IncrementIdentityProbe("timeout")
	assert.Equal(t, before+1, testutil.ToFloat64(IdentityProbeCount.WithLabelValues("timeout")))
}
