package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

var commentsListQuery = fmt.Sprintf(
	"SELECT comments.* FROM comments "+
		"WHERE comments.is_deleted = 0 "+
		"AND comments.is_moderated = 0 "+
		"ORDER BY id DESC LIMIT %d OFFSET 0",
	workload.CommentListWindow)

// Comments replays the /comments listing: the newest comment window, the
// commenters, the commented stories and their authors, plus the
// logged-in visitor's hide/vote state over the window.
func (v *Variant) Comments(ctx context.Context, c adapters.Conn, actingAs *workload.UserID) (bool, error) {
	window, err := handlers.QueryRows(ctx, c, commentsListQuery)
	if err != nil {
		return false, err
	}
	if len(window) == 0 {
		panic("got no comments from /comments; database is not primed")
	}

	commentIDs := make([]uint32, 0, len(window))
	userSet := make(map[uint32]struct{})
	storySet := make(map[uint32]struct{})
	for _, comment := range window {
		commentIDs = append(commentIDs, comment.Uint("id"))
		userSet[comment.Uint("user_id")] = struct{}{}
		storySet[comment.Uint("story_id")] = struct{}{}
	}
	storyIDs := handlers.SortedIDs(storySet)

	if actingAs != nil {
		if err = handlers.Discard(ctx, c,
			handlers.SelectOnePerUserIn("hidden_stories", uint32(*actingAs), "story_id", storyIDs)); err != nil {
			return false, err
		}
	}

	if err = handlers.Discard(ctx, c,
		handlers.SelectIn("users", "id", handlers.SortedIDs(userSet))); err != nil {
		return false, err
	}

	stories, err := handlers.QueryRows(ctx, c, handlers.SelectIn("stories", "id", storyIDs))
	if err != nil {
		return false, err
	}

	authorSet := make(map[uint32]struct{})
	for _, story := range stories {
		authorSet[story.Uint("user_id")] = struct{}{}
	}

	if actingAs != nil {
		if err = handlers.Discard(ctx, c,
			handlers.SelectPerUserIn("votes", uint32(*actingAs), "comment_id", commentIDs)); err != nil {
			return false, err
		}
	}

	// The real site loads the story authors one by one; the replay keeps
	// the batched form the upstream harness settled on.
	if err = handlers.Discard(ctx, c,
		handlers.SelectIn("users", "id", handlers.SortedIDs(authorSet))); err != nil {
		return false, err
	}

	return true, nil
}
