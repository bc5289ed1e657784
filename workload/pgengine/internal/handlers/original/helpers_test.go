package original_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/handlertest"
)

// storyCols/commentCols cover the columns the handlers actually read
// from their SELECT * lookups.
var (
	storyCols   = []string{"id", "user_id", "hotness"}
	commentCols = []string{"id", "user_id", "story_id", "upvotes", "downvotes", "thread_id"}
)

// findCall returns the first executed statement containing the fragment
// and fails the test when none does.
func findCall(t *testing.T, conn *handlertest.Conn, fragment string) handlertest.Call {
	t.Helper()

	for _, call := range conn.Calls {
		if strings.Contains(call.SQL, fragment) {
			return call
		}
	}

	t.Fatalf("no executed statement contains %q, got:\n%s",
		fragment, strings.Join(conn.SQL(), "\n"))
	return handlertest.Call{}
}

// memLogger records warnings for assertions on non-fatal data oddities.
type memLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *memLogger) Debug(string, ...any) {}
func (l *memLogger) Info(string, ...any)  {}
func (l *memLogger) Error(string, ...any) {}

func (l *memLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *memLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}
