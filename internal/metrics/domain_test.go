package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLoginAttemptOutcomes(t *testing.T) {
	for _, outcome := range []string{"success", "bad_credentials", "rate_limited", "locked", "rejected"} {
		before := testutil.ToFloat64(loginsTotal.WithLabelValues(outcome))
		LoginAttempt(outcome)
		assert.Equal(t, before+1, testutil.ToFloat64(loginsTotal.WithLabelValues(outcome)), outcome)
	}
}

func TestOTPIssuedByPurpose(t *testing.T) {
	verify := testutil.ToFloat64(otpsIssuedTotal.WithLabelValues("verify"))
	reset := testutil.ToFloat64(otpsIssuedTotal.WithLabelValues("reset"))

	OTPIssued("verify")
	OTPIssued("verify")
	OTPIssued("reset")

	assert.Equal(t, verify+2, testutil.ToFloat64(otpsIssuedTotal.WithLabelValues("verify")))
	assert.Equal(t, reset+1, testutil.ToFloat64(otpsIssuedTotal.WithLabelValues("reset")))
}
