package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Exec runs a scoped builder and returns the affected row count.
func Exec(ctx context.Context, q Querier, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, MapError("record", err)
	}
	return tag.RowsAffected(), nil
}

// ScalarInt runs a single-column numeric query such as COUNT(*).
func ScalarInt(ctx context.Context, q Querier, b sq.Sqlizer) (int, error) {
	return scalarInt(ctx, q, b, "record")
}

func scalarInt(ctx context.Context, q Querier, b sq.Sqlizer, entity string) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int64
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, MapError(entity, err)
	}
	return int(n), nil
}

// Strings collects a single text column.
func Strings(ctx context.Context, q Querier, b sq.Sqlizer) ([]string, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, MapError("record", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError("record", err)
	}
	return out, nil
}
