package lettuce_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	lettuce "github.com/handsfreemc/lettuce-core"
)

func BenchmarkValueQueue_PushPop(b *testing.B) {
	b.ReportAllocs()

	q := lettuce.UnboundedQueue()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(1)
		q.Pop()
	}
	b.StopTimer()
}

func BenchmarkValueQueue_PushAndPop(b *testing.B) {
	b.ReportAllocs()

	q := lettuce.UnboundedQueue()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(1)
	}

	for i := 0; i < b.N; i++ {
		q.Pop()
	}
	b.StopTimer()
}

func TestValueQueue_PushPop(t *testing.T) {
	q := lettuce.UnboundedQueue()

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))

	popped, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 1, popped)

	require.NoError(t, q.Push(3))

	popped2, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 2, popped2)

	popped3, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 3, popped3)

	require.True(t, q.IsEmpty())

	_, err = q.Pop()
	require.Error(t, err)
}

func TestValueQueue_Total(t *testing.T) {
	q := lettuce.UnboundedQueue()

	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	require.Equal(t, 2, q.Total())

	q.Pop()
	require.Equal(t, 1, q.Total())
}

func TestValueQueue_Clear(t *testing.T) {
	q := lettuce.UnboundedQueue()

	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))

	q.Clear()
	require.True(t, q.IsEmpty())
	require.Equal(t, 0, q.Total())
}

func TestBoundedQueue_DropNew(t *testing.T) {
	q := lettuce.BoundedQueue(2, lettuce.DropNew)

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))

	err := q.Push(3)
	require.Error(t, err)
	require.Contains(t, err.Error(), lettuce.ErrPushFailed.Error())

	popped, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 1, popped)
}

func TestBoundedQueue_DropOld(t *testing.T) {
	q := lettuce.BoundedQueue(2, lettuce.DropOld)

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	require.NoError(t, q.Push(3))

	popped, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 2, popped)

	popped2, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, 3, popped2)
}
