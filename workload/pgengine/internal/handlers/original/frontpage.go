package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

var frontpageStoriesQuery = fmt.Sprintf(
	"SELECT stories.* FROM stories "+
		"WHERE stories.merged_story_id IS NULL "+
		"AND stories.is_expired = 0 "+
		"AND (CAST(stories.upvotes AS integer) - CAST(stories.downvotes AS integer) >= 0) "+
		"ORDER BY hotness LIMIT %d OFFSET 0",
	workload.FrontpageStoryWindow)

// Frontpage replays the / listing: the hotness-ordered story window plus
// the per-user highlight lookups a logged-in visitor triggers.
func (v *Variant) Frontpage(ctx context.Context, c adapters.Conn, actingAs *workload.UserID) (bool, error) {
	stories, err := handlers.QueryRows(ctx, c, frontpageStoriesQuery)
	if err != nil {
		return false, err
	}
	if len(stories) == 0 {
		panic("got no stories from /frontpage; database is not primed")
	}

	userSet := make(map[uint32]struct{})
	storySet := make(map[uint32]struct{})
	for _, story := range stories {
		userSet[story.Uint("user_id")] = struct{}{}
		storySet[story.Uint("id")] = struct{}{}
	}
	storyIDs := handlers.SortedIDs(storySet)

	if actingAs != nil {
		if err = handlers.Discard(ctx, c,
			"SELECT hidden_stories.story_id FROM hidden_stories WHERE hidden_stories.user_id = $1",
			uint32(*actingAs)); err != nil {
			return false, err
		}

		tagFilters, filterErr := handlers.QueryRows(ctx, c,
			"SELECT tag_filters.* FROM tag_filters WHERE tag_filters.user_id = $1",
			uint32(*actingAs))
		if filterErr != nil {
			return false, filterErr
		}

		filteredTags := make([]uint32, 0, len(tagFilters))
		for _, filter := range tagFilters {
			filteredTags = append(filteredTags, filter.Uint("tag_id"))
		}

		if len(filteredTags) > 0 {
			if err = handlers.Discard(ctx, c, handlers.SelectTaggingsFiltered(storyIDs, filteredTags)); err != nil {
				return false, err
			}
		}
	}

	if err = v.storyWindowTail(ctx, c, actingAs, handlers.SortedIDs(userSet), storyIDs); err != nil {
		return false, err
	}

	return true, nil
}

// storyWindowTail issues the lookups common to the frontpage and /recent
// listings: submitter rows, suggestion rows, tag rows, and -- for a known
// user -- the vote/hide/save state of every story in the window.
func (v *Variant) storyWindowTail(
	ctx context.Context,
	c adapters.Conn,
	actingAs *workload.UserID,
	userIDs []uint32,
	storyIDs []uint32,
) error {

	if err := handlers.Discard(ctx, c, handlers.SelectIn("users", "id", userIDs)); err != nil {
		return err
	}

	if err := handlers.Discard(ctx, c, handlers.SelectIn("suggested_titles", "story_id", storyIDs)); err != nil {
		return err
	}

	if err := handlers.Discard(ctx, c, handlers.SelectIn("suggested_taggings", "story_id", storyIDs)); err != nil {
		return err
	}

	taggings, err := handlers.QueryRows(ctx, c, handlers.SelectIn("taggings", "story_id", storyIDs))
	if err != nil {
		return err
	}

	tagSet := make(map[uint32]struct{})
	for _, tagging := range taggings {
		tagSet[tagging.Uint("tag_id")] = struct{}{}
	}

	if len(tagSet) > 0 {
		if err = handlers.Discard(ctx, c, handlers.SelectIn("tags", "id", handlers.SortedIDs(tagSet))); err != nil {
			return err
		}
	}

	if actingAs == nil {
		return nil
	}

	uid := uint32(*actingAs)

	if err = handlers.Discard(ctx, c,
		handlers.SelectPerUserIn("votes", uid, "story_id", storyIDs, handlers.NullCommentID())); err != nil {
		return err
	}

	if err = handlers.Discard(ctx, c,
		handlers.SelectPerUserIn("hidden_stories", uid, "story_id", storyIDs)); err != nil {
		return err
	}

	return handlers.Discard(ctx, c,
		handlers.SelectPerUserIn("saved_stories", uid, "story_id", storyIDs))
}
