package original

import (
	"context"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/handlers"
)

// Login creates the user row on first sight of a username. The check and
// the insert are not atomic; concurrent first logins of the same user can
// race, which matches the emulated application.
func (v *Variant) Login(ctx context.Context, c adapters.Conn, uid workload.UserID) (bool, error) {
	_, found, err := handlers.QueryFirst(ctx, c,
		"SELECT 1 AS one FROM users WHERE users.username = $1", uid.Username())
	if err != nil {
		return false, err
	}

	if !found {
		if err = c.Exec(ctx,
			"INSERT INTO users (username) VALUES ($1)", uid.Username()); err != nil {
			return false, err
		}
	}

	return false, nil
}

// Logout issues no queries; the page exists only to return the borrowed
// connection, matching the emulated traffic mix.
func (v *Variant) Logout(_ context.Context, _ adapters.Conn, _ workload.UserID) (bool, error) {
	return false, nil
}
