package original

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

const unreadRepliesQuery = "SELECT COUNT(*) FROM replying_comments_for_count " +
	"WHERE replying_comments_for_count.user_id = $1 " +
	"GROUP BY replying_comments_for_count.user_id"

// Notifications loads the acting user's unread state: the reply count via
// the replying_comments_for_count view and the unread-messages keystore
// counter. It runs after most logged-in page views, mirroring the badge
// in the site header.
func (v *Variant) Notifications(ctx context.Context, c adapters.Conn, uid workload.UserID) error {
	if err := handlers.Discard(ctx, c, unreadRepliesQuery, uint32(uid)); err != nil {
		return err
	}

	return handlers.Discard(ctx, c,
		"SELECT keystores.* FROM keystores WHERE keystores.key = $1",
		fmt.Sprintf(workload.KeyUnreadMessages, uint32(uid)))
}
