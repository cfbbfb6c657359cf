// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservability_NilReceiver(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "recommend-similar-bikes", "completed")
		o.RecordJobDuration(context.Background(), "recommend-similar-bikes", 12*time.Millisecond, "completed")
		o.Shutdown()
	})
}

func TestNew_RecordsWithoutTracing(t *testing.T) {
	o, err := New("bike-recommender-test", "")
	if !assert.NoError(t, err) {
		return
	}
	defer o.Shutdown()

	assert.Nil(t, o.tracerShutdown)
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "recommend-used-bikes-budget", "failed")
	})
}
