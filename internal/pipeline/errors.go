// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/docbatch/internal/convert"
	"github.com/pdiddy/docbatch/pkg/types"
)

// JobError is the terminal error of a job. Match kinds with errors.Is
// against the sentinels below; errors.As exposes the failing item.
type JobError struct {
	Kind types.ErrorKind
	Msg  string
	// ItemIndex is the 0-based failing item, or -1 when no item is involved.
	ItemIndex int
	ItemName  string
	Err       error
}

func (e *JobError) Error() string {
	if e.ItemIndex >= 0 {
		return fmt.Sprintf("%s: item %d (%s): %s", e.Kind, e.ItemIndex+1, e.ItemName, e.message())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.message())
}

func (e *JobError) message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *JobError) Unwrap() error { return e.Err }

// Is reports whether target is a JobError of the same kind.
func (e *JobError) Is(target error) bool {
	t, ok := target.(*JobError)
	return ok && t.Kind == e.Kind
}

func sentinel(kind types.ErrorKind) *JobError {
	return &JobError{Kind: kind, ItemIndex: -1}
}

// Sentinels for errors.Is.
var (
	ErrEmptySelection    = sentinel(types.KindEmptySelection)
	ErrItemTooLarge      = sentinel(types.KindItemTooLarge)
	ErrAggregateTooLarge = sentinel(types.KindAggregateTooLarge)
	ErrReadFailed        = sentinel(types.KindReadFailed)
	ErrDecodeFailed      = sentinel(types.KindDecodeFailed)
	ErrRenderFailed      = sentinel(types.KindRenderFailed)
	ErrBundleFailed      = sentinel(types.KindBundleFailed)
	ErrCancelled         = sentinel(types.KindCancelled)
	ErrInvalidState      = sentinel(types.KindInvalidState)
)

func invalidState(format string, args ...any) *JobError {
	return &JobError{Kind: types.KindInvalidState, Msg: fmt.Sprintf(format, args...), ItemIndex: -1}
}

// itemError tags a conversion failure with the failing item. The kind comes
// from the converter when it reports one.
func itemError(ctx context.Context, index int, item types.InputItem, err error) *JobError {
	kind := types.KindRenderFailed
	var ce *convert.Error
	switch {
	case ctx.Err() != nil:
		kind = types.KindCancelled
	case errors.As(err, &ce):
		kind = ce.Kind
	}
	return &JobError{Kind: kind, ItemIndex: index, ItemName: item.Name, Err: err}
}

func bundleError(ctx context.Context, err error) *JobError {
	kind := types.KindBundleFailed
	if ctx.Err() != nil {
		kind = types.KindCancelled
	}
	return &JobError{Kind: kind, ItemIndex: -1, Err: err}
}
