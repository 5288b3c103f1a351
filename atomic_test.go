package lettuce_test

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	lettuce "github.com/handsfreemc/lettuce-core"
)

func TestDemandCounterAddAndConsume(t *testing.T) {
	var demand lettuce.DemandCounter

	require.False(t, demand.TryConsumeOne())

	require.Equal(t, int64(3), demand.Add(3))
	require.True(t, demand.TryConsumeOne())
	require.True(t, demand.TryConsumeOne())
	require.True(t, demand.TryConsumeOne())
	require.False(t, demand.TryConsumeOne())
	require.Equal(t, int64(0), demand.Get())
}

func TestDemandCounterSaturatesAtMax(t *testing.T) {
	var demand lettuce.DemandCounter

	require.Equal(t, int64(math.MaxInt64), demand.Add(math.MaxInt64))
	require.Equal(t, int64(math.MaxInt64), demand.Add(math.MaxInt64))
	require.Equal(t, int64(math.MaxInt64), demand.Add(1))

	require.True(t, demand.TryConsumeOne())
	require.Equal(t, int64(math.MaxInt64-1), demand.Get())
}

func TestDemandCounterConcurrentConsumers(t *testing.T) {
	var demand lettuce.DemandCounter
	demand.Add(100)

	var consumed int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for demand.TryConsumeOne() {
				atomic.AddInt64(&consumed, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(100), consumed)
	require.Equal(t, int64(0), demand.Get())
}

func TestDispatchGateSingleWinner(t *testing.T) {
	var gate lettuce.DispatchGate

	var winners int64
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryDispatch() {
				atomic.AddInt64(&winners, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(1), winners)
	require.True(t, gate.Dispatched())
}

func TestAtomicBool(t *testing.T) {
	var flag lettuce.AtomicBool

	require.False(t, flag.IsTrue())
	flag.On()
	require.True(t, flag.IsTrue())
	flag.Off()
	require.False(t, flag.IsTrue())
}
