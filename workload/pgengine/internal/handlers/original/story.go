package original

import (
	"context"
	"fmt"
	"time"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

const storyByShortIDQuery = "SELECT stories.* FROM stories WHERE stories.short_id = $1"

const orderedCommentsQuery = "SELECT comments.*, " +
	"comments.upvotes - comments.downvotes AS saldo " +
	"FROM comments " +
	"WHERE comments.story_id = $1 " +
	"ORDER BY saldo ASC, confidence DESC"

const mergedStoriesQuery = "SELECT stories.id FROM stories WHERE stories.merged_story_id = $1"

// Story replays the story detail view: resolve the story, refresh the
// viewer's read ribbon, load the ordered comment thread and the viewer's
// vote/hide/save state.
func (v *Variant) Story(ctx context.Context, c adapters.Conn, actingAs *workload.UserID, id workload.ShortID) (bool, error) {
	story, found, err := handlers.QueryFirst(ctx, c, storyByShortIDQuery, string(id))
	if err != nil {
		return false, err
	}
	if !found {
		panic(fmt.Sprintf("story %q not found; database is not primed", id))
	}

	author := story.Uint("user_id")
	storyID := story.Uint("id")

	if err = handlers.Discard(ctx, c,
		"SELECT users.* FROM users WHERE users.id = $1", author); err != nil {
		return false, err
	}

	// The real application only flushes the ribbon at the end of the
	// request; the replay keeps the upstream harness's eager ordering.
	if actingAs != nil {
		if err = v.touchReadRibbon(ctx, c, uint32(*actingAs), storyID); err != nil {
			return false, err
		}
	}

	if err = handlers.Discard(ctx, c, mergedStoriesQuery, storyID); err != nil {
		return false, err
	}

	comments, err := handlers.QueryRows(ctx, c, orderedCommentsQuery, storyID)
	if err != nil {
		return false, err
	}

	commenterSet := make(map[uint32]struct{})
	commentSet := make(map[uint32]struct{})
	for _, comment := range comments {
		commenterSet[comment.Uint("user_id")] = struct{}{}
		commentSet[comment.Uint("id")] = struct{}{}
	}

	if len(commenterSet) > 0 {
		if err = handlers.Discard(ctx, c,
			handlers.SelectIn("users", "id", handlers.SortedIDs(commenterSet))); err != nil {
			return false, err
		}

		if err = handlers.Discard(ctx, c,
			handlers.SelectIn("votes", "comment_id", handlers.SortedIDs(commentSet))); err != nil {
			return false, err
		}
	}

	if actingAs != nil {
		uid := uint32(*actingAs)

		if err = handlers.Discard(ctx, c,
			"SELECT votes.* FROM votes WHERE votes.user_id = $1 AND votes.story_id = $2 AND votes.comment_id IS NULL",
			uid, storyID); err != nil {
			return false, err
		}

		if err = handlers.Discard(ctx, c,
			"SELECT hidden_stories.* FROM hidden_stories WHERE hidden_stories.user_id = $1 AND hidden_stories.story_id = $2",
			uid, storyID); err != nil {
			return false, err
		}

		if err = handlers.Discard(ctx, c,
			"SELECT saved_stories.* FROM saved_stories WHERE saved_stories.user_id = $1 AND saved_stories.story_id = $2",
			uid, storyID); err != nil {
			return false, err
		}
	}

	taggings, err := handlers.QueryRows(ctx, c,
		"SELECT taggings.* FROM taggings WHERE taggings.story_id = $1", storyID)
	if err != nil {
		return false, err
	}

	tagSet := make(map[uint32]struct{})
	for _, tagging := range taggings {
		tagSet[tagging.Uint("tag_id")] = struct{}{}
	}

	if len(tagSet) > 0 {
		if err = handlers.Discard(ctx, c,
			handlers.SelectIn("tags", "id", handlers.SortedIDs(tagSet))); err != nil {
			return false, err
		}
	}

	return true, nil
}

// touchReadRibbon records when the user last saw this story: insert on
// first view, bump updated_at on every later one.
func (v *Variant) touchReadRibbon(ctx context.Context, c adapters.Conn, uid, storyID uint32) error {
	ribbon, found, err := handlers.QueryFirst(ctx, c,
		"SELECT read_ribbons.* FROM read_ribbons WHERE read_ribbons.user_id = $1 AND read_ribbons.story_id = $2",
		uid, storyID)
	if err != nil {
		return err
	}

	now := time.Now()
	if !found {
		return c.Exec(ctx,
			"INSERT INTO read_ribbons (created_at, updated_at, user_id, story_id) VALUES ($1, $2, $3, $4)",
			now, now, uid, storyID)
	}

	return c.Exec(ctx,
		"UPDATE read_ribbons SET updated_at = $1 WHERE read_ribbons.id = $2",
		now, ribbon.Uint("id"))
}
