// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Tool identifies the conversion direction chosen when a job is built.
type Tool string

const (
	ToolImagesToPDF Tool = "images-to-pdf"
	ToolPDFToImages Tool = "pdf-to-images"
	ToolMerge       Tool = "merge"
)

// Tools lists every supported tool in display order.
var Tools = []Tool{ToolImagesToPDF, ToolPDFToImages, ToolMerge}

// AcceptedMIME returns the caller-side allow-list for the tool.
func (t Tool) AcceptedMIME() []string {
	switch t {
	case ToolImagesToPDF:
		return []string{MIMEJPEG, MIMEPNG}
	case ToolPDFToImages, ToolMerge:
		return []string{MIMEPDF}
	default:
		return nil
	}
}

// RasterBackend selects the rendering engine used by pdf-to-images.
type RasterBackend string

const (
	BackendFitz    RasterBackend = "fitz"
	BackendPoppler RasterBackend = "poppler"
)

// ToolConfig holds the size thresholds for one tool as human-readable sizes
// (e.g. "50MiB"). They are parsed into Constraints before a job starts.
type ToolConfig struct {
	MaxItemSize       string `json:"max_item_size" yaml:"max_item_size" mapstructure:"max_item_size"`
	MaxAggregateSize  string `json:"max_aggregate_size" yaml:"max_aggregate_size" mapstructure:"max_aggregate_size"`
	WarnAggregateSize string `json:"warn_aggregate_size" yaml:"warn_aggregate_size" mapstructure:"warn_aggregate_size"`

	// OutputName overrides the default artifact filename.
	OutputName string `json:"output_name,omitempty" yaml:"output_name,omitempty" mapstructure:"output_name"`
}

// DefaultToolConfigs mirrors the limits each tool has always shipped with.
func DefaultToolConfigs() map[Tool]ToolConfig {
	return map[Tool]ToolConfig{
		ToolImagesToPDF: {MaxItemSize: "50MiB", MaxAggregateSize: "100MiB", WarnAggregateSize: "20MiB"},
		ToolPDFToImages: {MaxItemSize: "50MiB", MaxAggregateSize: "100MiB", WarnAggregateSize: "20MiB"},
		ToolMerge:       {MaxItemSize: "50MiB", MaxAggregateSize: "150MiB", WarnAggregateSize: "30MiB"},
	}
}

// S3Config holds settings for publishing artifacts to an S3-compatible bucket.
type S3Config struct {
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Bucket   string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty" mapstructure:"insecure"`

	AccessKey string `json:"-" yaml:"-" mapstructure:"access_key"`
	SecretKey string `json:"-" yaml:"-" mapstructure:"secret_key"`
}

// HistoryConfig holds settings for the job history store.
type HistoryConfig struct {
	// Dir is the directory holding history.db and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default number of rows listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}
