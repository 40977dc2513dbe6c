// Package descriptor defines the canonical job descriptor shape shared by
// every input path (structured documents, natural language, LLM completion)
// and the completeness rules over it.
package descriptor

import (
	"github.com/user/ratatosk"
)

// Connection holds the network coordinates of a relational source.
type Connection struct {
	Host     string
	Port     int
	Database string
}

// Credentials carry plaintext source credentials. Plaintext is a known
// security concern of this version, not a correctness one.
type Credentials struct {
	Username string
	Password string
}

// SourceSpec describes where a job reads from.
type SourceSpec struct {
	Kind           ratatosk.SourceKind
	Connection     Connection
	Table          string // schema.table
	Credentials    Credentials
	IncrementField string             // optional, enables incremental extraction
	Frequency      ratatosk.Frequency // informational only
	Schedule       string             // optional cron expression
	Options        map[string]string
}

// TransformKind discriminates the transformation variants.
type TransformKind string

const (
	TransformSelect    TransformKind = "select"
	TransformRename    TransformKind = "rename"
	TransformConvert   TransformKind = "convert"
	TransformAggregate TransformKind = "aggregate"
)

// RenamePair maps one column name to a new one. Pairs keep input order so
// rendering stays deterministic.
type RenamePair struct {
	From string
	To   string
}

// Conversion casts one column to a target type from ConvertTypes.
type Conversion struct {
	Column string
	To     string
}

// Metric is one (column, aggregate function) pair.
type Metric struct {
	Column string
	Func   string
}

// Aggregation groups by an ordered column list and computes metrics.
type Aggregation struct {
	GroupBy []string
	Metrics []Metric
}

// Transformation is one element of the ordered transformation sequence.
// Exactly one of the variant fields is set, per Kind.
type Transformation struct {
	Kind      TransformKind
	Columns   []string     // select
	Renames   []RenamePair // rename
	Convert   *Conversion  // convert
	Aggregate *Aggregation // aggregate
}

// SinkSpec describes where a job writes to.
type SinkSpec struct {
	Kind     ratatosk.SinkKind
	Catalog  string
	Database string
	Table    string
	Layer    ratatosk.Layer
	Mode     ratatosk.WriteMode
	Path     string // optional; absence implies a managed table
	Options  map[string]string
}

// JobDescriptor is the canonical structured representation of one ingestion
// job. It is created fresh per resolution request and never persisted by
// this subsystem.
type JobDescriptor struct {
	JobName         string
	Description     string
	Source          SourceSpec
	Transformations []Transformation
	Sink            SinkSpec
}

// FullyQualifiedTarget returns catalog.database.table for the sink.
func (d *JobDescriptor) FullyQualifiedTarget() string {
	return d.Sink.Catalog + "." + d.Sink.Database + "." + d.Sink.Table
}

// Clone returns a deep copy so one populating component can never alias
// another component's descriptor.
func (d *JobDescriptor) Clone() *JobDescriptor {
	out := *d
	out.Source.Options = cloneMap(d.Source.Options)
	out.Sink.Options = cloneMap(d.Sink.Options)
	out.Transformations = make([]Transformation, len(d.Transformations))
	for i, t := range d.Transformations {
		ct := t
		ct.Columns = append([]string(nil), t.Columns...)
		ct.Renames = append([]RenamePair(nil), t.Renames...)
		if t.Convert != nil {
			c := *t.Convert
			ct.Convert = &c
		}
		if t.Aggregate != nil {
			a := Aggregation{
				GroupBy: append([]string(nil), t.Aggregate.GroupBy...),
				Metrics: append([]Metric(nil), t.Aggregate.Metrics...),
			}
			ct.Aggregate = &a
		}
		out.Transformations[i] = ct
	}
	return &out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
