package original_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/handlertest"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/original"
)

func storyWindow() handlertest.Result {
	return handlertest.Result{
		Cols: storyCols,
		Rows: [][]any{
			{int64(7), int64(3), -1.0},
			{int64(8), int64(4), -2.0},
			{int64(9), int64(3), -3.0},
		},
	}
}

func Test_Frontpage_Empty_Panics(t *testing.T) {
	v := original.New(nil)

	assert.Panics(t, func() {
		_, _ = v.Frontpage(context.Background(), handlertest.NewConn(), nil)
	})
}

func Test_Frontpage_Anonymous_SkipsPerUserLookups(t *testing.T) {
	conn := handlertest.NewConn().Script("ORDER BY hotness", storyWindow())
	v := original.New(nil)

	needsNotifications, err := v.Frontpage(context.Background(), conn, nil)

	require.NoError(t, err)
	assert.True(t, needsNotifications)

	window := findCall(t, conn, "ORDER BY hotness")
	assert.Contains(t, window.SQL, "LIMIT 51")

	findCall(t, conn, `FROM "users"`)
	findCall(t, conn, `FROM "suggested_titles"`)
	findCall(t, conn, `FROM "suggested_taggings"`)
	findCall(t, conn, `FROM "taggings"`)

	assert.False(t, conn.Contains("hidden_stories"), "anonymous visitors have no hide state")
	assert.False(t, conn.Contains(`FROM "votes"`))
}

func Test_Frontpage_LoggedIn_AddsVoteHideSaveState(t *testing.T) {
	acting := workload.UserID(5)
	conn := handlertest.NewConn().
		Script("ORDER BY hotness", storyWindow()).
		Script("FROM tag_filters",
			handlertest.Row([]string{"id", "user_id", "tag_id"}, int64(1), int64(5), int64(2)))
	v := original.New(nil)

	_, err := v.Frontpage(context.Background(), conn, &acting)

	require.NoError(t, err)

	findCall(t, conn, "FROM hidden_stories WHERE hidden_stories.user_id = $1")

	// one active tag filter: the taggings intersection runs
	intersect := findCall(t, conn, `"taggings"."tag_id" IN`)
	assert.Contains(t, intersect.SQL, `"taggings"."story_id" IN (7, 8, 9)`)

	findCall(t, conn, `FROM "votes"`)
	findCall(t, conn, `FROM "hidden_stories"`)
	findCall(t, conn, `FROM "saved_stories"`)
}

func Test_Recent_LoggedIn_RefreshesWindowTaggings(t *testing.T) {
	acting := workload.UserID(5)
	conn := handlertest.NewConn().Script("ORDER BY stories.id DESC", storyWindow())
	v := original.New(nil)

	needsNotifications, err := v.Recent(context.Background(), conn, &acting)

	require.NoError(t, err)
	assert.True(t, needsNotifications)

	window := findCall(t, conn, "ORDER BY stories.id DESC")
	assert.Contains(t, window.SQL, "AS saldo")

	// the whole window's taggings are reloaded even without tag filters
	findCall(t, conn, `SELECT "taggings"."story_id" FROM "taggings"`)
	findCall(t, conn, `FROM "votes"`)
}

func Test_Recent_Empty_Panics(t *testing.T) {
	v := original.New(nil)

	assert.Panics(t, func() {
		acting := workload.UserID(5)
		_, _ = v.Recent(context.Background(), handlertest.NewConn(), &acting)
	})
}

func Test_Comments_LoggedIn_ProbesHideStateAndAuthors(t *testing.T) {
	acting := workload.UserID(5)
	conn := handlertest.NewConn().
		Script("ORDER BY id DESC", handlertest.Result{
			Cols: commentCols,
			Rows: [][]any{
				{int64(11), int64(2), int64(7), int64(1), int64(0), nil},
				{int64(12), int64(4), int64(8), int64(1), int64(0), nil},
			},
		}).
		Script(`FROM "stories"`, handlertest.Result{
			Cols: storyCols,
			Rows: [][]any{
				{int64(7), int64(3), -1.0},
				{int64(8), int64(9), -2.0},
			},
		})
	v := original.New(nil)

	needsNotifications, err := v.Comments(context.Background(), conn, &acting)

	require.NoError(t, err)
	assert.True(t, needsNotifications)

	window := findCall(t, conn, "ORDER BY id DESC")
	assert.Contains(t, window.SQL, "LIMIT 40")

	probe := findCall(t, conn, `FROM "hidden_stories"`)
	assert.Contains(t, probe.SQL, "SELECT 1")

	votes := findCall(t, conn, `FROM "votes"`)
	assert.Contains(t, votes.SQL, `"votes"."comment_id" IN (11, 12)`)

	// story authors (3, 9) are looked up after the stories themselves
	authors := findCall(t, conn, `"users"."id" IN (3, 9)`)
	assert.NotEmpty(t, authors.SQL)
}

func Test_Comments_Empty_Panics(t *testing.T) {
	v := original.New(nil)

	assert.Panics(t, func() {
		_, _ = v.Comments(context.Background(), handlertest.NewConn(), nil)
	})
}
