package ratatosk

import "context"

// SourceKind identifies the type of relational source a job reads from.
type SourceKind string

const (
	SourcePostgres  SourceKind = "postgres"
	SourceMySQL     SourceKind = "mysql"
	SourceSQLServer SourceKind = "sqlserver"

	// Reserved kinds exist in portable configs but are not supported by the
	// batch pipeline. Validation rejects them with a distinct error.
	SourceKafka     SourceKind = "kafka"
	SourceEventHubs SourceKind = "event_hubs"
)

// SinkKind identifies the type of sink a job writes to.
type SinkKind string

const (
	SinkDelta SinkKind = "delta"

	// SinkJDBC is reserved: accepted by the loader, rejected by validation.
	SinkJDBC SinkKind = "jdbc"
)

// Frequency describes how often a batch job is expected to run. It is
// informational only; the generated script does not schedule itself.
type Frequency string

const (
	Hourly Frequency = "hourly"
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// Layer is the data-quality layer of the sink table.
type Layer string

const (
	Bronze Layer = "bronze"
	Silver Layer = "silver"
	Gold   Layer = "gold"
)

// WriteMode controls how the generated script writes to the sink.
type WriteMode string

const (
	Overwrite WriteMode = "overwrite"
	Append    WriteMode = "append"
)

// Completer is the external text-completion collaborator. Implementations
// send a system/user prompt pair to a chat-completion endpoint and return
// the raw assistant content.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Submitter hands a rendered script to an external "submit and run"
// collaborator. The core never inspects execution results.
type Submitter interface {
	UploadScript(ctx context.Context, jobName, script string) (path string, err error)
	SubmitRun(ctx context.Context, jobName, scriptPath, clusterID string) (runID string, err error)
}

// Logger defines the interface for logging in Ratatosk.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
