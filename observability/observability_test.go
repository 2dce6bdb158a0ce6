package observability_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aalemi-dev/mackerel-tracing/observability"
)

func TestNoOpObserver(t *testing.T) {
	t.Parallel()
	observer := observability.NewNoOpObserver()

	assert.NotPanics(t, func() {
		observer.ObserveOperation(observability.OperationContext{
			Component: "tracer",
			Operation: "start",
		})
	})
}

func TestObserverFunc(t *testing.T) {
	t.Parallel()
	var (
		mu  sync.Mutex
		got []observability.OperationContext
	)
	var observer observability.Observer = observability.ObserverFunc(func(ctx observability.OperationContext) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ctx)
	})

	flushErr := errors.New("collector unreachable")
	observer.ObserveOperation(observability.OperationContext{
		Component: "tracer",
		Operation: "shutdown",
		Resource:  "https://collector.example/v1/traces",
		Duration:  20 * time.Millisecond,
		Error:     flushErr,
	})

	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, got, 1) {
		assert.Equal(t, "tracer", got[0].Component)
		assert.Equal(t, "shutdown", got[0].Operation)
		assert.ErrorIs(t, got[0].Error, flushErr)
		assert.Equal(t, "https://collector.example/v1/traces", got[0].Resource)
		assert.Equal(t, 20*time.Millisecond, got[0].Duration)
	}
}
