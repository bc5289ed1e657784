package hist_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload/hist"
)

func Test_Registry_MergesHandlesByName(t *testing.T) {
	reg := hist.NewRegistry(time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle := reg.GetHandle()
			for i := 0; i < 100; i++ {
				handle.Get("frontpage-processing").Record(10 * time.Millisecond)
			}
			handle.Get("story-processing").Record(20 * time.Millisecond)
		}()
	}
	wg.Wait()

	summaries := reg.Summaries()
	require.Len(t, summaries, 2)

	// sorted by name
	assert.Equal(t, "frontpage-processing", summaries[0].Name)
	assert.Equal(t, "story-processing", summaries[1].Name)

	assert.Equal(t, int64(400), summaries[0].Count)
	assert.Equal(t, int64(4), summaries[1].Count)
}

func Test_Registry_QuantilesReflectRecordedLatencies(t *testing.T) {
	reg := hist.NewRegistry(time.Minute)
	handle := reg.GetHandle()

	for i := 1; i <= 100; i++ {
		handle.Get("page").Record(time.Duration(i) * time.Millisecond)
	}

	summaries := reg.Summaries()
	require.Len(t, summaries, 1)

	// sigfigs=1 keeps the histogram compact; 15% tolerance covers its
	// bucket rounding
	p50 := summaries[0].Quantile(50)
	assert.InEpsilon(t, float64(50*time.Millisecond), float64(p50), 0.15)

	p100 := summaries[0].Quantile(100)
	assert.InEpsilon(t, float64(100*time.Millisecond), float64(p100), 0.15)
}

func Test_Record_ClampsOutOfRangeLatencies(t *testing.T) {
	reg := hist.NewRegistry(time.Second)
	handle := reg.GetHandle()

	// both far below the minimum and far above the maximum must record
	// without panicking
	handle.Get("page").Record(time.Nanosecond)
	handle.Get("page").Record(time.Hour)

	summaries := reg.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].Count)
	assert.LessOrEqual(t, summaries[0].Quantile(100), 2*time.Second)
}

func Test_Snapshots_RoundTrip(t *testing.T) {
	reg := hist.NewRegistry(time.Minute)
	handle := reg.GetHandle()
	for i := 0; i < 50; i++ {
		handle.Get("frontpage-sojourn").Record(5 * time.Millisecond)
		handle.Get("story-sojourn").Record(15 * time.Millisecond)
	}

	var buf bytes.Buffer
	require.NoError(t, reg.WriteSnapshots(&buf))

	decoded, err := hist.DecodeSnapshots(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	series := decoded["frontpage-sojourn"]
	require.Len(t, series, 1)
	assert.Equal(t, "frontpage-sojourn", series[0].Name)
	assert.NotNil(t, series[0].Hist)
	assert.Positive(t, series[0].Elapsed)
}

func Test_DecodeSnapshots_EmptyStream(t *testing.T) {
	decoded, err := hist.DecodeSnapshots(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
