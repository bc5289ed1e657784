package original

import (
	"context"
	"fmt"
	"time"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

var activeSubmitTagQuery = fmt.Sprintf(
	"SELECT tags.* FROM tags WHERE tags.inactive = 0 AND tags.tag IN ('%s')",
	workload.SubmitTag)

const keystoreUpsertQuery = "INSERT INTO keystores (key, value) VALUES ($1, $2) " +
	"ON CONFLICT (key) DO UPDATE SET value = keystores.value + 1"

// Submit replays submitting a new story: one story row, one tagging, one
// self-upvote, and the submitter's activity counter. Non-priming runs end
// with a second hotness overwrite, reproducing a double write the real
// site performs after the self-vote lands.
func (v *Variant) Submit(
	ctx context.Context,
	c adapters.Conn,
	uid workload.UserID,
	id workload.ShortID,
	title string,
	priming bool,
) (bool, error) {

	tag, found, err := handlers.QueryFirst(ctx, c, activeSubmitTagQuery)
	if err != nil {
		return false, err
	}
	if !found {
		panic(fmt.Sprintf("active tag %q missing; schema asset is not seeded", workload.SubmitTag))
	}
	tagID := tag.Uint("id")

	if !priming {
		if err = handlers.Discard(ctx, c,
			"SELECT 1 AS one FROM stories WHERE stories.short_id = $1", string(id)); err != nil {
			return false, err
		}
	}

	inserted, found, err := handlers.QueryFirst(ctx, c,
		"INSERT INTO stories "+
			"(created_at, user_id, title, description, short_id, upvotes, hotness, markeddown_description) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id",
		time.Now(), uint32(uid), title, workload.SyntheticStoryBody, string(id),
		1, workload.StoryHotnessSeed, workload.SyntheticStoryMarkdown)
	if err != nil {
		return false, err
	}
	if !found {
		panic("story insert returned no id")
	}
	storyID := inserted.Uint("id")

	if err = c.Exec(ctx,
		"INSERT INTO taggings (story_id, tag_id) VALUES ($1, $2)", storyID, tagID); err != nil {
		return false, err
	}

	key := fmt.Sprintf(workload.KeyStoriesSubmitted, uint32(uid))
	if err = c.Exec(ctx, keystoreUpsertQuery, key, 1); err != nil {
		return false, err
	}

	if !priming {
		if err = handlers.Discard(ctx, c,
			"SELECT keystores.* FROM keystores WHERE keystores.key = $1", key); err != nil {
			return false, err
		}

		if err = handlers.Discard(ctx, c, storyVotesQuery, uint32(uid), storyID); err != nil {
			return false, err
		}
	}

	if err = c.Exec(ctx,
		"INSERT INTO votes (user_id, story_id, vote) VALUES ($1, $2, $3)",
		uint32(uid), storyID, 1); err != nil {
		return false, err
	}

	if !priming {
		if err = handlers.Discard(ctx, c, foreignCommentScoresQuery, storyID); err != nil {
			return false, err
		}

		if err = c.Exec(ctx,
			"UPDATE stories SET hotness = $1 WHERE stories.id = $2",
			workload.StoryHotnessResubmit, storyID); err != nil {
			return false, err
		}
	}

	return false, nil
}
