package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

// /recent on the real site looks for stories from the past few days; the
// primed database holds a single day of content, so a plain LIMIT over the
// newest ids reproduces the same row window.
var recentStoriesQuery = fmt.Sprintf(
	"SELECT stories.*, "+
		"CAST(stories.upvotes AS integer) - CAST(stories.downvotes AS integer) AS saldo "+
		"FROM stories "+
		"WHERE stories.merged_story_id IS NULL "+
		"AND stories.is_expired = 0 "+
		"ORDER BY stories.id DESC LIMIT %d",
	workload.FrontpageStoryWindow)

// Recent replays the /recent listing.
func (v *Variant) Recent(ctx context.Context, c adapters.Conn, actingAs *workload.UserID) (bool, error) {
	stories, err := handlers.QueryRows(ctx, c, recentStoriesQuery)
	if err != nil {
		return false, err
	}
	if len(stories) == 0 {
		panic("got no stories from /recent; database is not primed")
	}

	userSet := make(map[uint32]struct{})
	storySet := make(map[uint32]struct{})
	for _, story := range stories {
		userSet[story.Uint("user_id")] = struct{}{}
		storySet[story.Uint("id")] = struct{}{}
	}
	storyIDs := handlers.SortedIDs(storySet)

	if actingAs != nil {
		uid := uint32(*actingAs)

		if err = handlers.Discard(ctx, c,
			"SELECT hidden_stories.story_id FROM hidden_stories WHERE hidden_stories.user_id = $1",
			uid); err != nil {
			return false, err
		}

		if err = handlers.Discard(ctx, c,
			"SELECT tag_filters.* FROM tag_filters WHERE tag_filters.user_id = $1",
			uid); err != nil {
			return false, err
		}

		// Unlike the frontpage, /recent refreshes the taggings of the
		// whole window regardless of the user's tag filters.
		if err = handlers.Discard(ctx, c,
			handlers.SelectColumnIn("taggings", "story_id", "story_id", storyIDs)); err != nil {
			return false, err
		}
	}

	if err = v.storyWindowTail(ctx, c, actingAs, handlers.SortedIDs(userSet), storyIDs); err != nil {
		return false, err
	}

	return true, nil
}
