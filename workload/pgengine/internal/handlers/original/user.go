package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

const mostUsedTagQuery = "SELECT tags.id, COUNT(*) AS count FROM taggings " +
	"INNER JOIN tags ON taggings.tag_id = tags.id " +
	"INNER JOIN stories ON stories.id = taggings.story_id " +
	"WHERE tags.inactive = 0 " +
	"AND stories.user_id = $1 " +
	"GROUP BY tags.id " +
	"ORDER BY count DESC LIMIT 1"

// User replays the profile view. A username that does not resolve returns
// found=false without issuing further queries; profile links for users who
// never logged in are a legitimate runtime case.
func (v *Variant) User(ctx context.Context, c adapters.Conn, _ *workload.UserID, uid workload.UserID) (bool, error) {
	user, found, err := handlers.QueryFirst(ctx, c,
		"SELECT users.* FROM users WHERE users.username = $1", uid.Username())
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	userID := user.Uint("id")

	topTag, found, err := handlers.QueryFirst(ctx, c, mostUsedTagQuery, userID)
	if err != nil {
		return false, err
	}
	if found {
		if err = handlers.Discard(ctx, c,
			"SELECT tags.* FROM tags WHERE tags.id = $1", topTag.Uint("id")); err != nil {
			return false, err
		}
	}

	if err = handlers.Discard(ctx, c,
		"SELECT keystores.* FROM keystores WHERE keystores.key = $1",
		fmt.Sprintf(workload.KeyStoriesSubmitted, userID)); err != nil {
		return false, err
	}

	if err = handlers.Discard(ctx, c,
		"SELECT keystores.* FROM keystores WHERE keystores.key = $1",
		fmt.Sprintf(workload.KeyCommentsPosted, userID)); err != nil {
		return false, err
	}

	if err = handlers.Discard(ctx, c,
		"SELECT 1 AS one FROM hats WHERE hats.user_id = $1 LIMIT 1", userID); err != nil {
		return false, err
	}

	return true, nil
}
