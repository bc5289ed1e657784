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

const seedHotness = -19216.2884921

func storyVoteConn() *handlertest.Conn {
	return handlertest.NewConn().
		Script("FROM stories WHERE stories.short_id",
			handlertest.Row(storyCols, int64(7), int64(3), seedHotness))
}

func Test_StoryVote_Upvote_AdjustsCountersKarmaAndHotness(t *testing.T) {
	conn := storyVoteConn()
	v := original.New(nil)

	needsNotifications, err := v.StoryVote(
		context.Background(), conn, workload.UserID(5), "000001", workload.VoteUp, false)

	require.NoError(t, err)
	assert.False(t, needsNotifications)

	insert := findCall(t, conn, "INSERT INTO votes (user_id, story_id, vote)")
	assert.Equal(t, []any{uint32(5), uint32(7), 1}, insert.Args)

	karma := findCall(t, conn, "UPDATE users SET karma = users.karma + 1")
	assert.Equal(t, []any{uint32(3)}, karma.Args)

	apply := findCall(t, conn, "upvotes = stories.upvotes + 1, downvotes = stories.downvotes + 0")
	assert.InDelta(t, seedHotness-1, apply.Args[0], 1e-9)
	assert.Equal(t, uint32(7), apply.Args[1])
}

func Test_StoryVote_Downvote_InvertsKarmaAndHotness(t *testing.T) {
	conn := storyVoteConn()
	v := original.New(nil)

	_, err := v.StoryVote(
		context.Background(), conn, workload.UserID(5), "000001", workload.VoteDown, false)

	require.NoError(t, err)

	insert := findCall(t, conn, "INSERT INTO votes (user_id, story_id, vote)")
	assert.Equal(t, 0, insert.Args[2], "downvote stores vote value 0")

	findCall(t, conn, "UPDATE users SET karma = users.karma - 1")

	apply := findCall(t, conn, "upvotes = stories.upvotes + 0, downvotes = stories.downvotes + 1")
	assert.InDelta(t, seedHotness+1, apply.Args[0], 1e-9)
}

func Test_StoryVote_NoDuplicateCheck_InsertsEveryTime(t *testing.T) {
	conn := storyVoteConn()
	v := original.New(nil)

	for i := 0; i < 2; i++ {
		_, err := v.StoryVote(
			context.Background(), conn, workload.UserID(5), "000001", workload.VoteUp, true)
		require.NoError(t, err)
	}

	inserts := 0
	for _, sql := range conn.SQL() {
		if sql == "INSERT INTO votes (user_id, story_id, vote) VALUES ($1, $2, $3)" {
			inserts++
		}
	}
	assert.Equal(t, 2, inserts)
}

func Test_StoryVote_Priming_SkipsExtraReads(t *testing.T) {
	conn := storyVoteConn()
	v := original.New(nil)

	_, err := v.StoryVote(
		context.Background(), conn, workload.UserID(5), "000001", workload.VoteUp, true)

	require.NoError(t, err)
	assert.False(t, conn.Contains("comments.user_id <> stories.user_id"),
		"priming must skip the fidelity-only reads")
	assert.False(t, conn.Contains("stories.merged_story_id = $1"))
	assert.Len(t, conn.Calls, 5)
}

func Test_StoryVote_NonPriming_IssuesExtraReads(t *testing.T) {
	conn := storyVoteConn()
	v := original.New(nil)

	_, err := v.StoryVote(
		context.Background(), conn, workload.UserID(5), "000001", workload.VoteUp, false)

	require.NoError(t, err)
	findCall(t, conn, "INNER JOIN taggings ON tags.id = taggings.tag_id")
	findCall(t, conn, "comments.user_id <> stories.user_id")
	findCall(t, conn, "stories.merged_story_id = $1")
	assert.Len(t, conn.Calls, 8)
}

func Test_StoryVote_UnknownStory_Panics(t *testing.T) {
	conn := handlertest.NewConn()
	v := original.New(nil)

	assert.Panics(t, func() {
		_, _ = v.StoryVote(
			context.Background(), conn, workload.UserID(5), "zzzzzz", workload.VoteUp, false)
	})
}
