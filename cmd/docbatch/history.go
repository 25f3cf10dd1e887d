// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/docbatch/internal/history"
	"github.com/pdiddy/docbatch/internal/pipeline"
	"github.com/pdiddy/docbatch/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or export past conversion jobs",
	Long: `History lists finished jobs, most recent first, from the local history
database. Use --export to write the matching jobs to export.yaml or
export.json in the history directory.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := historyOptsFromFlags(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("export")
	switch format {
	case "":
	case "yaml":
		path, err := store.ExportYAML(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	case "json":
		path, err := store.ExportJSON(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	entries, err := store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	formatHistory(cmd.OutOrStdout(), entries)
	return nil
}

func historyOptsFromFlags(cmd *cobra.Command) (history.QueryOptions, error) {
	tool, _ := cmd.Flags().GetString("tool")
	state, _ := cmd.Flags().GetString("state")
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetDuration("since")

	opts := history.QueryOptions{
		Tool:       types.Tool(tool),
		State:      state,
		MaxResults: limit,
	}
	if since > 0 {
		opts.Since = time.Now().Add(-since)
	}
	if tool != "" && !slices.Contains(types.Tools, opts.Tool) {
		return opts, fmt.Errorf("unknown tool %q: use %s", tool, toolList())
	}
	if state != "" && !pipeline.IsTerminal(pipeline.State(state)) {
		return opts, fmt.Errorf("unsupported state %q: use %s or %s", state, pipeline.StateCompleted, pipeline.StateFailed)
	}
	return opts, nil
}

func toolList() string {
	names := make([]string, len(types.Tools))
	for i, t := range types.Tools {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No jobs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-13s  %-9s  %-5s  %-5s  %-10s  %s\n",
		"Job", "Tool", "State", "Items", "Pages", "Size", "Result")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, e := range entries {
		result := e.Filename
		if e.State == "failed" {
			result = string(e.Kind)
			if e.Message != "" {
				result += ": " + e.Message
			}
			result = truncate(result, 40)
		}
		size := "-"
		if e.Bytes > 0 {
			size = humanize.IBytes(uint64(e.Bytes))
		}
		fmt.Fprintf(w, "%-36s  %-13s  %-9s  %-5d  %-5d  %-10s  %s\n",
			e.ID, e.Tool, e.State, e.Items, e.Pages, size, result)
	}

	fmt.Fprintf(w, "\n%d jobs\n", len(entries))
}

func init() {
	historyCmd.Flags().String("tool", "", "filter by tool: "+toolList())
	historyCmd.Flags().String("state", "", "filter by state: completed or failed")
	historyCmd.Flags().Duration("since", 0, "only jobs finished within this duration (e.g. 24h)")
	historyCmd.Flags().Int("limit", 0, "maximum jobs listed (0 = use default)")
	historyCmd.Flags().String("export", "", "write matching jobs to the history directory: yaml or json")

	rootCmd.AddCommand(historyCmd)
}
