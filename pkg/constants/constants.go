// Package constants provides shared constants used throughout the exprmap codebase.
package constants

import "time"

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// MaxRequestedGenes caps the gene list of a multi-species analysis
	MaxRequestedGenes = 1000

	// MaxSourcesInFlight is the number of collaborator fetches run concurrently
	MaxSourcesInFlight = 4
)

// Metric namespace constants
const (
	// MetricsNamespace prefixes every exported Prometheus metric
	MetricsNamespace = "exprmap"
)

// Path constants
const (
	// DefaultConfigName is the config file name searched in $HOME and the working dir
	DefaultConfigName = ".exprmap"

	// DatasetEnvKey names the environment variable pointing to the default dataset
	DatasetEnvKey = "EXPRMAP_DATASET"
)
