package pgengine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lobsterload/lobsterload/workload"
)

const maintenanceDatabase = "postgres"

// Bootstrap drops and recreates the target database named in the DSN,
// then applies the variant's schema asset statement by statement. It runs
// on dedicated single connections (never the steady-state pool) and must
// complete before any traffic starts; every failure is fatal to setup,
// since a partially applied schema would invalidate the whole run.
//
// Bootstrap is idempotent: running it twice leaves the same empty,
// seeded schema behind.
func Bootstrap(ctx context.Context, dsn string, variantName string, logger workload.Logger) error {
	_, ddl, err := variantByName(variantName, logger)
	if err != nil {
		return err
	}

	statements := SplitStatements(ddl)
	if len(statements) == 0 {
		return errors.Join(workload.ErrBootstrapFailed, workload.ErrEmptyDDL)
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return errors.Join(workload.ErrBootstrapFailed, err)
	}

	targetDB := cfg.Database
	if targetDB == "" {
		return errors.Join(workload.ErrBootstrapFailed,
			fmt.Errorf("connection string names no database"))
	}

	if err = recreateDatabase(ctx, dsn, targetDB); err != nil {
		return err
	}

	return applySchema(ctx, dsn, statements, logger)
}

// recreateDatabase connects to the maintenance database and issues the
// drop/create pair for the target.
func recreateDatabase(ctx context.Context, dsn string, targetDB string) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return errors.Join(workload.ErrBootstrapFailed, err)
	}
	cfg.Database = maintenanceDatabase

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return errors.Join(workload.ErrBootstrapFailed, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	quoted := pgx.Identifier{targetDB}.Sanitize()

	if _, err = conn.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", quoted)); err != nil {
		return errors.Join(workload.ErrBootstrapFailed, err)
	}

	if _, err = conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", quoted)); err != nil {
		return errors.Join(workload.ErrBootstrapFailed, err)
	}

	return nil
}

func applySchema(ctx context.Context, dsn string, statements []string, logger workload.Logger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return errors.Join(workload.ErrBootstrapFailed, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	for _, statement := range statements {
		if _, err = conn.Exec(ctx, statement); err != nil {
			return errors.Join(workload.ErrBootstrapFailed,
				fmt.Errorf("applying %q: %w", abbreviate(statement), err))
		}
	}

	if logger != nil {
		logger.Info("schema bootstrap complete", "statements", len(statements))
	}

	return nil
}

// SplitStatements cuts a schema asset into executable statements: comment
// and blank lines are skipped, remaining lines are joined with single
// spaces, and a statement ends at a line whose content ends with ';'.
func SplitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(trimmed)

		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	return statements
}

func abbreviate(statement string) string {
	const max = 60
	if len(statement) <= max {
		return statement
	}

	return statement[:max] + "..."
}
