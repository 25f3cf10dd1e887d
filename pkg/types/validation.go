// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ErrorKind classifies why a job or a validation failed.
type ErrorKind string

const (
	KindEmptySelection    ErrorKind = "empty_selection"
	KindItemTooLarge      ErrorKind = "item_too_large"
	KindAggregateTooLarge ErrorKind = "aggregate_too_large"
	KindReadFailed        ErrorKind = "read_failed"
	KindDecodeFailed      ErrorKind = "decode_failed"
	KindRenderFailed      ErrorKind = "render_failed"
	KindBundleFailed      ErrorKind = "bundle_failed"
	KindCancelled         ErrorKind = "cancelled"
	KindInvalidState      ErrorKind = "invalid_state"
)

// Constraints holds the size thresholds a batch is validated against.
type Constraints struct {
	MaxItemSizeBytes       uint64 `json:"max_item_size_bytes" yaml:"max_item_size_bytes"`
	MaxAggregateSizeBytes  uint64 `json:"max_aggregate_size_bytes" yaml:"max_aggregate_size_bytes"`
	WarnAggregateSizeBytes uint64 `json:"warn_aggregate_size_bytes" yaml:"warn_aggregate_size_bytes"`
}

// ValidationOutcome is computed once per submitted batch and never mutated.
type ValidationOutcome struct {
	Accepted bool `json:"accepted" yaml:"accepted"`

	// Reason is empty when Accepted is true.
	Reason ErrorKind `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Message is the display text for a rejection.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Offenders lists the names of items over the per-item limit.
	Offenders []string `json:"offenders,omitempty" yaml:"offenders,omitempty"`

	// Warning is an advisory for accepted batches above the soft threshold.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}
