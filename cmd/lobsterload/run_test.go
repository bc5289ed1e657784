package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload"
)

func Test_TakeNext_NeverYieldsItemsAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queue := make(chan issued, 4)
	for i := 0; i < 4; i++ {
		queue <- issued{req: workload.Request{Page: workload.PageFrontpage}, due: time.Now()}
	}

	// Both select branches are ready; the post-receive check must win
	// regardless of which one the runtime picks.
	for i := 0; i < 8; i++ {
		_, ok := takeNext(ctx, queue)
		assert.False(t, ok)
	}
}

func Test_TakeNext_YieldsQueuedItemWhileRunning(t *testing.T) {
	queue := make(chan issued, 1)
	want := issued{req: workload.Request{Page: workload.PageStory, Story: "00001a"}}
	queue <- want

	got, ok := takeNext(context.Background(), queue)

	require.True(t, ok)
	assert.Equal(t, want.req, got.req)
}

func Test_TakeNext_EndsOnClosedQueue(t *testing.T) {
	queue := make(chan issued)
	close(queue)

	_, ok := takeNext(context.Background(), queue)

	assert.False(t, ok)
}
