// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/docbatch/pkg/types"
)

// QueryOptions filters List.
type QueryOptions struct {
	// Tool restricts results to one conversion direction.
	Tool types.Tool

	// State is "completed" or "failed".
	State string

	// Since drops jobs that finished before it.
	Since time.Time

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// List returns finished jobs, most recent first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, tool, state, kind, message, item_index, items, pages,
			filename, bytes, started_at, finished_at
		FROM jobs WHERE 1=1`)

	if opts.Tool != "" {
		qb.WriteString(` AND tool = ?`)
		args = append(args, string(opts.Tool))
	}
	if opts.State != "" {
		qb.WriteString(` AND state = ?`)
		args = append(args, opts.State)
	}
	if !opts.Since.IsZero() {
		qb.WriteString(` AND finished_at >= ?`)
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}

	qb.WriteString(` ORDER BY finished_at DESC, id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			tool, kind        string
			message, filename sql.NullString
			started, finished string
		)
		if err := rows.Scan(
			&e.ID, &tool, &e.State, &kind, &message, &e.ItemIndex, &e.Items, &e.Pages,
			&filename, &e.Bytes, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		e.Tool = types.Tool(tool)
		e.Kind = types.ErrorKind(kind)
		e.Message = message.String
		e.Filename = filename.String
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
