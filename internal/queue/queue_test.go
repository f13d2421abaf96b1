package queue

import (
	"sync"
	"testing"

	"github.com/slefx/plumectl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(part string, t float32) core.Sample {
	return core.Sample{PartID: part, Kind: core.KindLanding, MissionTime: t}
}

func missionTimes(samples []core.Sample) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s.MissionTime
	}
	return out
}

func TestQueue_PushAndTake(t *testing.T) {
	q := New[core.Sample]()
	assert.True(t, q.Empty())

	q.Push(sample("booster", 1))
	q.Push(sample("booster", 2), sample("pad", 2))
	assert.Equal(t, 3, q.Len())
	assert.False(t, q.Empty())

	got := q.GetAndEmpty()
	assert.Equal(t, []float32{1, 2, 2}, missionTimes(got))
	assert.Equal(t, "pad", got[2].PartID)
	assert.True(t, q.Empty())

	assert.Empty(t, q.GetAndEmpty())
}

func TestQueue_TakenSliceIsDetached(t *testing.T) {
	q := New[core.Sample]()
	q.Push(sample("booster", 1))
	got := q.GetAndEmpty()

	q.Push(sample("booster", 2))
	assert.Equal(t, []float32{1}, missionTimes(got))
}

func TestQueue_Requeue(t *testing.T) {
	q := New[core.Sample]()
	q.Push(sample("booster", 1), sample("booster", 2))

	taken := q.GetAndEmpty()
	q.Push(sample("booster", 3))
	q.Requeue(taken...)

	assert.Equal(t, []float32{1, 2, 3}, missionTimes(q.GetAndEmpty()))

	q.Requeue()
	assert.True(t, q.Empty())
}

func TestQueue_ConcurrentPushAndTake(t *testing.T) {
	q := New[core.Sample]()

	const writers, perWriter = 8, 250
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				q.Push(sample("booster", float32(i)))
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		total += len(q.GetAndEmpty())
	}

	require.True(t, q.Empty())
	assert.Equal(t, writers*perWriter, total)
}
