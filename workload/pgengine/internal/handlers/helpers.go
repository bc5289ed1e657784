// Package handlers holds the building blocks shared by the per-variant
// page handlers: by-name row access for wide SELECT * results, result
// draining for the fidelity-only read round-trips, and goqu-built batch
// lookups over deduplicated id sets.
package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
)

const dialect = "postgres"

// RowMap is one result row keyed by column name. It mirrors how the
// emulated application reads rows (by name, ignoring most columns).
type RowMap map[string]any

// Uint reads an integer column. It panics when the column is absent or
// NULL; handlers only call it for columns their contract guarantees.
func (r RowMap) Uint(column string) uint32 {
	v, ok := toUint(r[column])
	if !ok {
		panic(fmt.Sprintf("row has no usable integer column %q (got %T)", column, r[column]))
	}
	return v
}

// OptUint reads a nullable integer column.
func (r RowMap) OptUint(column string) (uint32, bool) {
	return toUint(r[column])
}

// Float reads a float column, panicking when absent or NULL.
func (r RowMap) Float(column string) float64 {
	switch v := r[column].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	default:
		panic(fmt.Sprintf("row has no usable float column %q (got %T)", column, r[column]))
	}
}

func toUint(v any) (uint32, bool) {
	switch n := v.(type) {
	case int:
		return uint32(n), true
	case int16:
		return uint32(n), true
	case int32:
		return uint32(n), true
	case int64:
		return uint32(n), true
	case uint32:
		return n, true
	case uint64:
		return uint32(n), true
	default:
		return 0, false
	}
}

// CollectRows materializes every row of a result by column name.
func CollectRows(rows adapters.Rows) ([]RowMap, error) {
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var collected []RowMap
	for rows.Next() {
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}

		if scanErr := rows.Scan(dests...); scanErr != nil {
			return nil, scanErr
		}

		row := make(RowMap, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		collected = append(collected, row)
	}

	return collected, rows.Err()
}

// QueryRows runs a query and materializes the full result.
func QueryRows(ctx context.Context, c adapters.Conn, sql string, args ...any) ([]RowMap, error) {
	rows, err := c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return CollectRows(rows)
}

// QueryFirst runs a query and returns its first row, reporting whether one
// existed. Remaining rows are discarded.
func QueryFirst(ctx context.Context, c adapters.Conn, sql string, args ...any) (RowMap, bool, error) {
	collected, err := QueryRows(ctx, c, sql, args...)
	if err != nil || len(collected) == 0 {
		return nil, false, err
	}

	return collected[0], true, nil
}

// Discard runs a query and throws the result away. The emulated
// application performs a number of reads whose results it never uses;
// they are kept for round-trip fidelity.
func Discard(ctx context.Context, c adapters.Conn, sql string, args ...any) error {
	rows, err := c.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
	}

	return rows.Err()
}

// SortedIDs returns the deduplicated ids of a set in ascending order, for
// stable IN (...) predicates.
func SortedIDs(set map[uint32]struct{}) []uint32 {
	ids := make([]uint32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// SelectIn builds SELECT <table>.* FROM <table> WHERE <column> IN (ids).
func SelectIn(table, column string, ids []uint32) string {
	return mustSQL(goqu.Dialect(dialect).
		From(table).
		Select(goqu.I(table + ".*")).
		Where(goqu.I(table + "." + column).In(idList(ids))))
}

// SelectColumnIn builds SELECT <selected> FROM <table> WHERE <column> IN (ids).
func SelectColumnIn(table, selected, column string, ids []uint32) string {
	return mustSQL(goqu.Dialect(dialect).
		From(table).
		Select(goqu.I(table + "." + selected)).
		Where(goqu.I(table + "." + column).In(idList(ids))))
}

// SelectPerUserIn builds the per-row highlight lookups: rows of <table>
// belonging to one user, restricted to an id window, with optional extra
// predicates.
func SelectPerUserIn(table string, userID uint32, column string, ids []uint32, extra ...exp.Expression) string {
	conditions := []exp.Expression{
		goqu.I(table + ".user_id").Eq(userID),
		goqu.I(table + "." + column).In(idList(ids)),
	}
	conditions = append(conditions, extra...)

	return mustSQL(goqu.Dialect(dialect).
		From(table).
		Select(goqu.I(table + ".*")).
		Where(conditions...))
}

// SelectOnePerUserIn builds the cheap membership probe variant of
// SelectPerUserIn used by the comments listing: SELECT 1 instead of the
// full row set.
func SelectOnePerUserIn(table string, userID uint32, column string, ids []uint32) string {
	return mustSQL(goqu.Dialect(dialect).
		From(table).
		Select(goqu.V(1)).
		Where(
			goqu.I(table+".user_id").Eq(userID),
			goqu.I(table+"."+column).In(idList(ids)),
		))
}

// NullCommentID is the votes.comment_id IS NULL predicate used to select
// story (not comment) votes.
func NullCommentID() exp.Expression {
	return goqu.I("votes.comment_id").IsNull()
}

// SelectTaggingsFiltered builds the tag-filter intersection query issued
// on listing pages for logged-in users with active tag filters.
func SelectTaggingsFiltered(storyIDs, tagIDs []uint32) string {
	return mustSQL(goqu.Dialect(dialect).
		From("taggings").
		Select(goqu.I("taggings.story_id")).
		Where(
			goqu.I("taggings.story_id").In(idList(storyIDs)),
			goqu.I("taggings.tag_id").In(idList(tagIDs)),
		))
}

func idList(ids []uint32) []any {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}

	return list
}

func mustSQL(stmt *goqu.SelectDataset) string {
	sql, _, err := stmt.ToSQL()
	if err != nil {
		panic(fmt.Sprintf("building batch lookup query: %v", err))
	}

	return sql
}
