package original

import (
	"context"
	"fmt"
	"time"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

// Comment replays posting a comment: resolve the story (and the parent
// comment when threading), insert the comment and its self-upvote,
// recount the story's comments, decrement its hotness, and bump the
// author's activity counter.
func (v *Variant) Comment(
	ctx context.Context,
	c adapters.Conn,
	uid workload.UserID,
	id workload.ShortID,
	storyShortID workload.ShortID,
	parent *workload.ShortID,
	priming bool,
) (bool, error) {

	story, found, err := handlers.QueryFirst(ctx, c, storyByShortIDQuery, string(storyShortID))
	if err != nil {
		return false, err
	}
	if !found {
		panic(fmt.Sprintf("story %q not found for comment; database is not primed", storyShortID))
	}

	author := story.Uint("user_id")
	hotness := story.Float("hotness")
	storyID := story.Uint("id")

	if !priming {
		if err = handlers.Discard(ctx, c,
			"SELECT users.* FROM users WHERE users.id = $1", author); err != nil {
			return false, err
		}
	}

	parentID, threadID, err := v.resolveParent(ctx, c, storyID, parent)
	if err != nil {
		return false, err
	}

	if !priming {
		// short-id availability check; the result is ignored, like upstream
		if err = handlers.Discard(ctx, c,
			"SELECT 1 AS one FROM comments WHERE comments.short_id = $1", string(id)); err != nil {
			return false, err
		}
	}

	commentID, err := v.insertComment(ctx, c, uid, id, storyID, parentID, threadID)
	if err != nil {
		return false, err
	}

	if !priming {
		if err = handlers.Discard(ctx, c, commentVotesQuery, uint32(uid), storyID, commentID); err != nil {
			return false, err
		}
	}

	if err = c.Exec(ctx,
		"INSERT INTO votes (user_id, story_id, comment_id, vote) VALUES ($1, $2, $3, $4)",
		uint32(uid), storyID, commentID, 1); err != nil {
		return false, err
	}

	if err = handlers.Discard(ctx, c, mergedStoriesQuery, storyID); err != nil {
		return false, err
	}

	// comments_count is recomputed by counting the (ordered, as upstream
	// has it) comment rows rather than incremented in place.
	comments, err := handlers.QueryRows(ctx, c, orderedCommentsQuery, storyID)
	if err != nil {
		return false, err
	}

	if err = c.Exec(ctx,
		"UPDATE stories SET comments_count = $1 WHERE stories.id = $2",
		len(comments), storyID); err != nil {
		return false, err
	}

	if !priming {
		if err = v.hotnessInputReads(ctx, c, storyID); err != nil {
			return false, err
		}
	}

	if err = c.Exec(ctx,
		"UPDATE stories SET hotness = $1 WHERE stories.id = $2",
		hotness-workload.HotnessUnit, storyID); err != nil {
		return false, err
	}

	if err = c.Exec(ctx, keystoreUpsertQuery,
		fmt.Sprintf(workload.KeyCommentsPosted, uint32(uid)), 1); err != nil {
		return false, err
	}

	return false, nil
}

// resolveParent looks the parent comment up within the story and inherits
// its thread id. A dangling parent reference is logged and the comment is
// posted top-level; the generator can race its own comment stream, so
// this is not an integrity fault.
func (v *Variant) resolveParent(
	ctx context.Context,
	c adapters.Conn,
	storyID uint32,
	parent *workload.ShortID,
) (*uint32, *uint32, error) {

	if parent == nil {
		return nil, nil, nil
	}

	row, found, err := handlers.QueryFirst(ctx, c,
		"SELECT comments.* FROM comments WHERE comments.story_id = $1 AND comments.short_id = $2",
		storyID, string(*parent))
	if err != nil {
		return nil, nil, err
	}
	if !found {
		v.warn("failed to find parent comment",
			"parent_short_id", string(*parent), "story_id", storyID)
		return nil, nil, nil
	}

	parentID := row.Uint("id")

	var threadID *uint32
	if thread, ok := row.OptUint("thread_id"); ok {
		threadID = &thread
	}

	return &parentID, threadID, nil
}

func (v *Variant) insertComment(
	ctx context.Context,
	c adapters.Conn,
	uid workload.UserID,
	id workload.ShortID,
	storyID uint32,
	parentID *uint32,
	threadID *uint32,
) (uint32, error) {

	now := time.Now()

	var inserted handlers.RowMap
	var found bool
	var err error

	if parentID != nil {
		inserted, found, err = handlers.QueryFirst(ctx, c,
			"INSERT INTO comments "+
				"(created_at, updated_at, short_id, story_id, user_id, parent_comment_id, thread_id, "+
				"comment, upvotes, confidence, markeddown_comment) "+
				"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id",
			now, now, string(id), storyID, uint32(uid), *parentID, threadID,
			workload.SyntheticCommentBody, 1, workload.CommentConfidenceSeed,
			workload.SyntheticCommentMarkdown)
	} else {
		inserted, found, err = handlers.QueryFirst(ctx, c,
			"INSERT INTO comments "+
				"(created_at, updated_at, short_id, story_id, user_id, "+
				"comment, upvotes, confidence, markeddown_comment) "+
				"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id",
			now, now, string(id), storyID, uint32(uid),
			workload.SyntheticCommentBody, 1, workload.CommentConfidenceSeed,
			workload.SyntheticCommentMarkdown)
	}
	if err != nil {
		return 0, err
	}
	if !found {
		panic("comment insert returned no id")
	}

	return inserted.Uint("id"), nil
}
