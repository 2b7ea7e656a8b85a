package domain

import "time"

// FailurePolicy decides what a per-node error does to the rest of the run.
// It is always explicit; the engine never infers it from caller identity.
type FailurePolicy string

const (
	// ContinueOnError records the failure and moves on with the node's
	// output treated as absent. Interactive test runs use this.
	ContinueOnError FailurePolicy = "continue_on_error"
	// AbortOnError stops the session at the first failing node and marks it
	// failed. Committed and scheduled runs use this.
	AbortOnError FailurePolicy = "abort_on_error"
)

// EngineConfig is the explicit configuration struct passed into the engine at
// construction time.
type EngineConfig struct {
	// QueryTimeout bounds each data source collaborator call.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// CompletionTimeout bounds each text-completion call.
	CompletionTimeout time.Duration `mapstructure:"completion_timeout"`
	// HTTPTimeout bounds each generic outbound HTTP call.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// SearchTimeout bounds each vector search call.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	// MaxQueryRows caps the rows a dataSource node may pull onto the bus.
	MaxQueryRows int `mapstructure:"max_query_rows"`
	// MaxLoopIterations caps loop node fan-out. Exceeding it is a
	// configuration error, not a silent truncation.
	MaxLoopIterations int `mapstructure:"max_loop_iterations"`
	// DefaultSearchLimit is the rag result count when the node does not set one.
	DefaultSearchLimit int `mapstructure:"default_search_limit"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		QueryTimeout:       30 * time.Second,
		CompletionTimeout:  60 * time.Second,
		HTTPTimeout:        30 * time.Second,
		SearchTimeout:      15 * time.Second,
		MaxQueryRows:       1000,
		MaxLoopIterations:  1000,
		DefaultSearchLimit: 5,
	}
}
