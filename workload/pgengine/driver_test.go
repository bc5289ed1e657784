package pgengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/handlertest"
)

func staticPool(conn adapters.Conn) *handlertest.Pool {
	return &handlertest.Pool{
		AcquireFn: func(context.Context) (adapters.Conn, error) { return conn, nil },
	}
}

func frontpageConn() *handlertest.Conn {
	return handlertest.NewConn().
		Script("ORDER BY hotness", handlertest.Result{
			Cols: []string{"id", "user_id", "hotness"},
			Rows: [][]any{{int64(7), int64(3), -1.0}},
		})
}

func Test_Execute_RunsNotificationsForLoggedInNonPriming(t *testing.T) {
	conn := frontpageConn()
	engine := testEngine(t, staticPool(conn))

	acting := workload.UserID(5)
	err := engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageFrontpage})

	require.NoError(t, err)
	assert.True(t, conn.Contains("replying_comments_for_count"))
	assert.Equal(t, 1, conn.Released())
}

func Test_Execute_SkipsNotificationsWhenAnonymous(t *testing.T) {
	conn := frontpageConn()
	engine := testEngine(t, staticPool(conn))

	err := engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{Page: workload.PageFrontpage})

	require.NoError(t, err)
	assert.False(t, conn.Contains("replying_comments_for_count"))
}

func Test_Execute_SkipsNotificationsWhenPriming(t *testing.T) {
	conn := frontpageConn()
	engine := testEngine(t, staticPool(conn))

	acting := workload.UserID(5)
	err := engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageFrontpage, Priming: true})

	require.NoError(t, err)
	assert.False(t, conn.Contains("replying_comments_for_count"))
}

func Test_Execute_SkipsNotificationsAfterWritePages(t *testing.T) {
	// write handlers report needsNotifications=false even for logged-in
	// users; only the page views refresh the badge
	conn := handlertest.NewConn()
	engine := testEngine(t, staticPool(conn))

	acting := workload.UserID(5)
	err := engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageLogin})

	require.NoError(t, err)
	assert.False(t, conn.Contains("replying_comments_for_count"))
}

func Test_Execute_DowngradesPoolClosedToSuccess(t *testing.T) {
	conn := handlertest.NewConn()
	conn.QueryErr = fmt.Errorf("acquiring connection: %w", workload.ErrPoolClosed)
	engine := testEngine(t, staticPool(conn))

	acting := workload.UserID(5)
	err := engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageLogin})

	assert.NoError(t, err)
	assert.Equal(t, 1, conn.Released())
}

func Test_Execute_PropagatesStoreErrorsAndReleases(t *testing.T) {
	conn := handlertest.NewConn()
	conn.QueryErr = errors.New("connection reset")
	engine := testEngine(t, staticPool(conn))

	acting := workload.UserID(5)
	err := engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageLogin})

	require.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 1, conn.Released())
}

func Test_Execute_LoggedInOnlyPage_WithoutUser_Panics(t *testing.T) {
	conn := handlertest.NewConn()
	engine := testEngine(t, staticPool(conn))

	assert.Panics(t, func() {
		_ = engine.Execute(context.Background(), Conn{c: conn},
			workload.Request{Page: workload.PageSubmit})
	})
}

type memMetrics struct {
	mu        sync.Mutex
	durations map[string]int
	counters  map[string]int
}

func newMemMetrics() *memMetrics {
	return &memMetrics{durations: map[string]int{}, counters: map[string]int{}}
}

func (m *memMetrics) RecordDuration(metric string, _ time.Duration, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[metric]++
}

func (m *memMetrics) IncrementCounter(metric string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metric]++
}

func Test_Execute_RecordsMetrics(t *testing.T) {
	metrics := newMemMetrics()
	conn := handlertest.NewConn()
	engine := testEngine(t, staticPool(conn), WithMetrics(metrics))

	acting := workload.UserID(5)
	require.NoError(t, engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageLogout}))

	assert.Equal(t, 1, metrics.durations["workload_request_duration"])
	assert.Equal(t, 1, metrics.counters["workload_requests_total"])
	assert.Zero(t, metrics.counters["workload_request_failures_total"])

	conn.QueryErr = errors.New("boom")
	_ = engine.Execute(context.Background(), Conn{c: conn},
		workload.Request{ActingAs: &acting, Page: workload.PageLogin})

	assert.Equal(t, 1, metrics.counters["workload_request_failures_total"])
}

func Test_Engine_Close_ClosesPool(t *testing.T) {
	pool := staticPool(handlertest.NewConn())
	engine := testEngine(t, pool)

	engine.Close()
	assert.True(t, pool.Closed)
}
