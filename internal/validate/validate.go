// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate screens a batch of input items against size constraints
// before any conversion starts.
package validate

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/docbatch/pkg/types"
)

// Validate checks items against c. Rules apply in order and the first
// failing rule wins:
//
//  1. no items                          -> EmptySelection
//  2. any item above MaxItemSizeBytes   -> ItemTooLarge (every offender named)
//  3. total above MaxAggregateSizeBytes -> AggregateTooLarge
//  4. total above WarnAggregateSizeBytes -> accepted with a warning
//
// Validate is pure; callers re-run it on every new selection.
func Validate(items []types.InputItem, c types.Constraints) types.ValidationOutcome {
	if len(items) == 0 {
		return types.ValidationOutcome{
			Reason:  types.KindEmptySelection,
			Message: "no files selected",
		}
	}

	var offenders []string
	for _, it := range items {
		if it.SizeBytes > c.MaxItemSizeBytes {
			offenders = append(offenders, fmt.Sprintf("%s (%s)", it.Name, FormatBytes(it.SizeBytes)))
		}
	}
	if len(offenders) > 0 {
		return types.ValidationOutcome{
			Reason: types.KindItemTooLarge,
			Message: fmt.Sprintf("the following files exceed max size (%s): %s",
				FormatBytes(c.MaxItemSizeBytes), strings.Join(offenders, ", ")),
			Offenders: offenders,
		}
	}

	total := types.TotalSize(items)
	if total > c.MaxAggregateSizeBytes {
		return types.ValidationOutcome{
			Reason: types.KindAggregateTooLarge,
			Message: fmt.Sprintf("total size (%s) exceeds maximum limit (%s)",
				FormatBytes(total), FormatBytes(c.MaxAggregateSizeBytes)),
		}
	}

	outcome := types.ValidationOutcome{Accepted: true}
	if total > c.WarnAggregateSizeBytes {
		outcome.Warning = fmt.Sprintf("large total size (%s), conversion may take longer", FormatBytes(total))
	}
	return outcome
}

// FormatBytes renders n with 1024-based units, e.g. "50 MiB".
func FormatBytes(n uint64) string {
	return humanize.IBytes(n)
}

// ParseConstraints converts human-readable sizes from cfg into Constraints.
// The warning threshold may not exceed the aggregate cap and the per-item
// cap may not exceed it either.
func ParseConstraints(cfg types.ToolConfig) (types.Constraints, error) {
	var c types.Constraints
	var err error

	if c.MaxItemSizeBytes, err = parseSize("max_item_size", cfg.MaxItemSize); err != nil {
		return c, err
	}
	if c.MaxAggregateSizeBytes, err = parseSize("max_aggregate_size", cfg.MaxAggregateSize); err != nil {
		return c, err
	}
	if c.WarnAggregateSizeBytes, err = parseSize("warn_aggregate_size", cfg.WarnAggregateSize); err != nil {
		return c, err
	}

	if c.MaxItemSizeBytes > c.MaxAggregateSizeBytes {
		return c, fmt.Errorf("max_item_size (%s) exceeds max_aggregate_size (%s)",
			FormatBytes(c.MaxItemSizeBytes), FormatBytes(c.MaxAggregateSizeBytes))
	}
	if c.WarnAggregateSizeBytes > c.MaxAggregateSizeBytes {
		return c, fmt.Errorf("warn_aggregate_size (%s) exceeds max_aggregate_size (%s)",
			FormatBytes(c.WarnAggregateSizeBytes), FormatBytes(c.MaxAggregateSizeBytes))
	}
	return c, nil
}

func parseSize(key, v string) (uint64, error) {
	if strings.TrimSpace(v) == "" {
		return 0, fmt.Errorf("%s is not set", key)
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", key, v, err)
	}
	return n, nil
}
