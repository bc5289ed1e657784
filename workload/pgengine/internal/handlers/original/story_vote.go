package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

const storyVotesQuery = "SELECT votes.* FROM votes " +
	"WHERE votes.user_id = $1 AND votes.story_id = $2 AND votes.comment_id IS NULL"

const storyTagsQuery = "SELECT tags.* FROM tags " +
	"INNER JOIN taggings ON tags.id = taggings.tag_id " +
	"WHERE taggings.story_id = $1"

const foreignCommentScoresQuery = "SELECT comments.upvotes, comments.downvotes " +
	"FROM comments " +
	"JOIN stories ON (stories.id = comments.story_id) " +
	"WHERE comments.story_id = $1 " +
	"AND comments.user_id <> stories.user_id"

// StoryVote replays voting on a story. The vote row is inserted without a
// duplicate check -- the production site has the same gap and the replay
// keeps the write pattern identical rather than fixing it.
func (v *Variant) StoryVote(
	ctx context.Context,
	c adapters.Conn,
	uid workload.UserID,
	id workload.ShortID,
	dir workload.VoteDir,
	priming bool,
) (bool, error) {

	story, found, err := handlers.QueryFirst(ctx, c, storyByShortIDQuery, string(id))
	if err != nil {
		return false, err
	}
	if !found {
		panic(fmt.Sprintf("story %q not found for vote; database is not primed", id))
	}

	author := story.Uint("user_id")
	hotness := story.Float("hotness")
	storyID := story.Uint("id")

	if err = handlers.Discard(ctx, c, storyVotesQuery, uint32(uid), storyID); err != nil {
		return false, err
	}

	if err = c.Exec(ctx,
		"INSERT INTO votes (user_id, story_id, vote) VALUES ($1, $2, $3)",
		uint32(uid), storyID, dir.VoteValue()); err != nil {
		return false, err
	}

	if err = v.adjustKarma(ctx, c, author, dir); err != nil {
		return false, err
	}

	// The extra reads mirror the hotness recomputation the real site
	// performs; their results are unused but the round-trips are part of
	// the measured workload.
	if !priming {
		if err = v.hotnessInputReads(ctx, c, storyID); err != nil {
			return false, err
		}
	}

	if err = v.applyStoryVote(ctx, c, storyID, hotness, dir); err != nil {
		return false, err
	}

	return false, nil
}

func (v *Variant) adjustKarma(ctx context.Context, c adapters.Conn, author uint32, dir workload.VoteDir) error {
	return c.Exec(ctx,
		fmt.Sprintf("UPDATE users SET karma = users.karma %s WHERE users.id = $1", plusMinusOne(dir)),
		author)
}

func (v *Variant) hotnessInputReads(ctx context.Context, c adapters.Conn, storyID uint32) error {
	if err := handlers.Discard(ctx, c, storyTagsQuery, storyID); err != nil {
		return err
	}

	if err := handlers.Discard(ctx, c, foreignCommentScoresQuery, storyID); err != nil {
		return err
	}

	return handlers.Discard(ctx, c, mergedStoriesQuery, storyID)
}

// applyStoryVote bumps the vote counters and overwrites hotness under the
// simplified ranking: one hotness unit per vote, sign following the vote.
// Only relative ordering matters for the frontpage, so the replay skips
// the production site's full hotness algorithm.
func (v *Variant) applyStoryVote(ctx context.Context, c adapters.Conn, storyID uint32, hotness float64, dir workload.VoteDir) error {
	upDelta, downDelta := 1, 0
	if dir == workload.VoteDown {
		upDelta, downDelta = 0, 1
	}

	return c.Exec(ctx,
		fmt.Sprintf(
			"UPDATE stories SET upvotes = stories.upvotes + %d, downvotes = stories.downvotes + %d, hotness = $1 WHERE stories.id = $2",
			upDelta, downDelta),
		hotness-float64(dir.Delta())*workload.HotnessUnit, storyID)
}

func plusMinusOne(dir workload.VoteDir) string {
	if dir == workload.VoteUp {
		return "+ 1"
	}
	return "- 1"
}
