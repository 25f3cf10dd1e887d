// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pdiddy/docbatch/internal/bundle"
	"github.com/pdiddy/docbatch/internal/convert"
	"github.com/pdiddy/docbatch/internal/pipeline"
	"github.com/pdiddy/docbatch/internal/progress"
	"github.com/pdiddy/docbatch/internal/publish"
	"github.com/pdiddy/docbatch/internal/source"
	"github.com/pdiddy/docbatch/internal/validate"
	"github.com/pdiddy/docbatch/pkg/types"
)

// batch wires one CLI invocation: read the paths, run the job, publish the
// artifact.
type batch struct {
	fs        afero.Fs
	out       io.Writer
	log       *zap.Logger
	tool      types.Tool
	cfg       types.ToolConfig
	backend   types.RasterBackend
	publisher publish.Publisher
	// history is an extra sink, typically a history.Sink. May be nil.
	history progress.Sink
}

// run converts paths and returns where the artifact was published.
func (b batch) run(ctx context.Context, paths []string) (string, error) {
	items, err := source.FromPaths(b.fs, paths)
	if err != nil {
		return "", err
	}

	items, dropped := source.Filter(items, b.tool)
	if len(dropped) > 0 {
		fmt.Fprintf(b.out, "skipped (unsupported type for %s): %s\n", b.tool, strings.Join(dropped, ", "))
	}

	constraints, err := validate.ParseConstraints(b.cfg)
	if err != nil {
		return "", fmt.Errorf("%s limits: %w", b.tool, err)
	}

	conv, err := convert.New(b.tool, b.backend)
	if err != nil {
		return "", err
	}
	bundler, err := bundle.ForTool(b.tool, b.cfg.OutputName)
	if err != nil {
		return "", err
	}

	sinks := []progress.Sink{progress.NewWriterSink(b.out), progress.NewLogSink(b.log)}
	if b.history != nil {
		sinks = append(sinks, b.history)
	}

	orch := pipeline.New(constraints, b.log)
	job := pipeline.NewJob(b.tool, items)

	artifact, err := orch.Start(ctx, job, conv, bundler, progress.Multi(sinks...))
	if err != nil {
		return "", err
	}

	dest, err := b.publisher.Publish(ctx, job.ID(), artifact)
	if err != nil {
		return "", fmt.Errorf("publishing %s: %w", artifact.Filename, err)
	}
	fmt.Fprintf(b.out, "wrote %s\n", dest)
	return dest, nil
}
