package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

const commentVotesQuery = "SELECT votes.* FROM votes " +
	"WHERE votes.user_id = $1 AND votes.story_id = $2 AND votes.comment_id = $3"

// CommentVote replays voting on a comment: insert the vote row (again, no
// duplicate check), adjust the author's karma, rewrite the comment's
// confidence, then propagate a simplified hotness change to the story.
func (v *Variant) CommentVote(
	ctx context.Context,
	c adapters.Conn,
	uid workload.UserID,
	id workload.ShortID,
	dir workload.VoteDir,
	priming bool,
) (bool, error) {

	comment, found, err := handlers.QueryFirst(ctx, c,
		"SELECT comments.* FROM comments WHERE comments.short_id = $1", string(id))
	if err != nil {
		return false, err
	}
	if !found {
		panic(fmt.Sprintf("comment %q not found for vote; database is not primed", id))
	}

	author := comment.Uint("user_id")
	storyID := comment.Uint("story_id")
	upvotes := comment.Uint("upvotes")
	downvotes := comment.Uint("downvotes")
	commentID := comment.Uint("id")

	if err = handlers.Discard(ctx, c, commentVotesQuery, uint32(uid), storyID, commentID); err != nil {
		return false, err
	}

	if err = c.Exec(ctx,
		"INSERT INTO votes (user_id, story_id, comment_id, vote) VALUES ($1, $2, $3, $4)",
		uint32(uid), storyID, commentID, dir.VoteValue()); err != nil {
		return false, err
	}

	if err = v.adjustKarma(ctx, c, author, dir); err != nil {
		return false, err
	}

	// Confidence is recomputed from the counters as read before this
	// vote landed -- a faithful copy of the production site's off-by-one,
	// not a bug in the replay. New comments start with upvotes=1, so the
	// denominator can never be zero.
	confidence := float64(upvotes) / float64(upvotes+downvotes)

	upDelta, downDelta := 1, 0
	if dir == workload.VoteDown {
		upDelta, downDelta = 0, 1
	}

	if err = c.Exec(ctx,
		fmt.Sprintf(
			"UPDATE comments SET upvotes = comments.upvotes + %d, downvotes = comments.downvotes + %d, confidence = $1 WHERE id = $2",
			upDelta, downDelta),
		confidence, commentID); err != nil {
		return false, err
	}

	story, found, err := handlers.QueryFirst(ctx, c,
		"SELECT stories.* FROM stories WHERE stories.id = $1", storyID)
	if err != nil {
		return false, err
	}
	if !found {
		panic(fmt.Sprintf("story %d missing for comment %q; database is inconsistent", storyID, id))
	}

	if !priming {
		if err = v.hotnessInputReads(ctx, c, storyID); err != nil {
			return false, err
		}
	}

	if err = v.applyStoryVote(ctx, c, storyID, story.Float("hotness"), dir); err != nil {
		return false, err
	}

	return false, nil
}
