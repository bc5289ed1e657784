// Package noria implements the "noria" query variant: the same page
// contracts as the original variant over a schema that precomputes the
// per-user notification count into a boundary view, as prepared for
// dataflow-materialized backends. All other page handlers are shared with
// the original variant; only the notification read and the DDL differ.
package noria

import (
	"context"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/original"
)

// VariantName is the registry name of this handler set.
const VariantName = "noria"

// Variant embeds the original handler set and overrides the pieces that
// read the precomputed notification boundary.
type Variant struct {
	*original.Variant
}

// New creates the handler set. A nil logger disables handler logging.
func New(logger workload.Logger) *Variant {
	return &Variant{Variant: original.New(logger)}
}

// Name returns the registry name of this handler set.
func (v *Variant) Name() string {
	return VariantName
}

// Notifications reads the precomputed per-user notification count instead
// of aggregating over the reply view on every request.
func (v *Variant) Notifications(ctx context.Context, c adapters.Conn, uid workload.UserID) error {
	if err := handlers.Discard(ctx, c,
		"SELECT boundary_notifications.notifications FROM boundary_notifications "+
			"WHERE boundary_notifications.user_id = $1",
		uint32(uid)); err != nil {
		return err
	}

	return handlers.Discard(ctx, c,
		"SELECT keystores.* FROM keystores WHERE keystores.key = $1",
		fmt.Sprintf(workload.KeyUnreadMessages, uint32(uid)))
}
