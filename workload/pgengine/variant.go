package pgengine

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/noria"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers/original"
)

//go:embed schema/original.sql
var originalSchema string

//go:embed schema/noria.sql
var noriaSchema string

// Variant is a complete, interchangeable set of page handlers. Every
// handler receives the borrowed connection and returns whether the
// notifications step should follow. Implementations must issue their
// whole query sequence on the one connection they are handed.
type Variant interface {
	Name() string

	Frontpage(ctx context.Context, c adapters.Conn, actingAs *workload.UserID) (bool, error)
	Recent(ctx context.Context, c adapters.Conn, actingAs *workload.UserID) (bool, error)
	Comments(ctx context.Context, c adapters.Conn, actingAs *workload.UserID) (bool, error)
	Story(ctx context.Context, c adapters.Conn, actingAs *workload.UserID, id workload.ShortID) (bool, error)
	User(ctx context.Context, c adapters.Conn, actingAs *workload.UserID, uid workload.UserID) (bool, error)
	Login(ctx context.Context, c adapters.Conn, uid workload.UserID) (bool, error)
	Logout(ctx context.Context, c adapters.Conn, uid workload.UserID) (bool, error)
	StoryVote(ctx context.Context, c adapters.Conn, uid workload.UserID, id workload.ShortID, dir workload.VoteDir, priming bool) (bool, error)
	CommentVote(ctx context.Context, c adapters.Conn, uid workload.UserID, id workload.ShortID, dir workload.VoteDir, priming bool) (bool, error)
	Submit(ctx context.Context, c adapters.Conn, uid workload.UserID, id workload.ShortID, title string, priming bool) (bool, error)
	Comment(ctx context.Context, c adapters.Conn, uid workload.UserID, id workload.ShortID, story workload.ShortID, parent *workload.ShortID, priming bool) (bool, error)

	Notifications(ctx context.Context, c adapters.Conn, uid workload.UserID) error
}

// VariantNames lists the registered query variants.
func VariantNames() []string {
	return []string{original.VariantName, noria.VariantName}
}

// variantByName resolves a variant name to its handler set and schema
// asset. An unknown name is a configuration fault surfaced at startup.
func variantByName(name string, logger workload.Logger) (Variant, string, error) {
	switch name {
	case original.VariantName:
		return original.New(logger), originalSchema, nil
	case noria.VariantName:
		return noria.New(logger), noriaSchema, nil
	default:
		return nil, "", errors.Join(workload.ErrUnknownVariant, fmt.Errorf("variant %q", name))
	}
}
