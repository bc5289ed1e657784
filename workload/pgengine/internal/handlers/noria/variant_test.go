package noria_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/handlertest"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/noria"
)

func Test_Noria_Name(t *testing.T) {
	assert.Equal(t, "noria", noria.New(nil).Name())
}

func Test_Noria_Notifications_ReadsBoundaryView(t *testing.T) {
	conn := handlertest.NewConn()
	v := noria.New(nil)

	err := v.Notifications(context.Background(), conn, workload.UserID(5))

	require.NoError(t, err)

	boundary := findCall(t, conn, "FROM boundary_notifications")
	assert.Equal(t, []any{uint32(5)}, boundary.Args)

	unread := findCall(t, conn, "FROM keystores")
	assert.Equal(t, []any{"user:5:unread_messages"}, unread.Args)

	assert.False(t, conn.Contains("replying_comments_for_count"),
		"the boundary view replaces the per-request aggregation")
}

func Test_Noria_SharesPageHandlers(t *testing.T) {
	conn := handlertest.NewConn().
		Script("FROM stories WHERE stories.short_id",
			handlertest.Row([]string{"id", "user_id", "hotness"}, int64(7), int64(3), -1.0))
	v := noria.New(nil)

	_, err := v.StoryVote(
		context.Background(), conn, workload.UserID(5), "000001", workload.VoteUp, true)

	require.NoError(t, err)
	findCall(t, conn, "INSERT INTO votes")
}

func findCall(t *testing.T, conn *handlertest.Conn, fragment string) handlertest.Call {
	t.Helper()

	for _, call := range conn.Calls {
		if strings.Contains(call.SQL, fragment) {
			return call
		}
	}

	t.Fatalf("no executed statement contains %q", fragment)
	return handlertest.Call{}
}
