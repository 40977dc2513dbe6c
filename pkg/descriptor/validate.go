package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/user/ratatosk"
)

// Report maps an unresolved required field path to a human-readable reason.
// An empty report means the descriptor is complete. The report is built in
// one pass so a caller can ask for everything that is missing at once.
type Report map[string]string

// Complete reports whether validation found no missing required fields.
func (r Report) Complete() bool { return len(r) == 0 }

// ValidationError is a fatal cross-field or format inconsistency, as opposed
// to a missing field (which goes into the Report instead).
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Path, e.Reason)
}

// ErrReservedKind marks a kind value that exists in portable configs but is
// not supported by the batch pipeline (streaming source types, jdbc sink).
var ErrReservedKind = errors.New("kind is reserved and not supported by the batch pipeline")

// ConvertTypes is the closed set of conversion target types.
var ConvertTypes = map[string]bool{
	"string":    true,
	"int":       true,
	"long":      true,
	"float":     true,
	"double":    true,
	"boolean":   true,
	"date":      true,
	"timestamp": true,
}

// AggregateFuncs is the closed set of aggregate metric functions.
var AggregateFuncs = map[string]bool{
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
	"count": true,
}

var validSourceKinds = map[ratatosk.SourceKind]bool{
	ratatosk.SourcePostgres:  true,
	ratatosk.SourceMySQL:     true,
	ratatosk.SourceSQLServer: true,
}

var reservedSourceKinds = map[ratatosk.SourceKind]bool{
	ratatosk.SourceKafka:     true,
	ratatosk.SourceEventHubs: true,
}

// Validate checks a descriptor for completeness and consistency. It returns
// a non-empty Report when required fields are unresolved, or an error for
// fatal conditions (malformed values, cross-field inconsistencies, reserved
// kinds). Validate is pure and idempotent: it never mutates the descriptor,
// and re-running it on a complete descriptor returns complete again.
func Validate(d *JobDescriptor) (Report, error) {
	if reservedSourceKinds[d.Source.Kind] {
		return nil, fmt.Errorf("source.kind %q: %w", d.Source.Kind, ErrReservedKind)
	}
	if d.Sink.Kind == ratatosk.SinkJDBC {
		return nil, fmt.Errorf("sink.kind %q: %w", d.Sink.Kind, ErrReservedKind)
	}

	report := Report{}

	if d.JobName == "" {
		report[FieldJobName] = "a job name is required"
	} else if !isIdentifier(d.JobName, true) {
		return nil, &ValidationError{Path: FieldJobName, Reason: "job name may only contain letters, digits, '_' and '-'"}
	}

	if err := validateSource(&d.Source, report); err != nil {
		return nil, err
	}
	if err := validateTransformations(d.Transformations); err != nil {
		return nil, err
	}
	if err := validateSink(&d.Sink, report); err != nil {
		return nil, err
	}

	if report.Complete() {
		return nil, nil
	}
	return report, nil
}

func validateSource(s *SourceSpec, report Report) error {
	switch {
	case s.Kind == "":
		report[FieldSourceKind] = "a source database kind is required (postgres, mysql or sqlserver)"
	case !validSourceKinds[s.Kind]:
		return &ValidationError{Path: FieldSourceKind, Reason: fmt.Sprintf("unknown source kind %q", s.Kind)}
	}

	if s.Connection.Host == "" {
		report[FieldSourceHost] = "the source host is required"
	}
	if s.Connection.Port == 0 {
		report[FieldSourcePort] = "the source port is required"
	} else if s.Connection.Port < 0 || s.Connection.Port > 65535 {
		return &ValidationError{Path: FieldSourcePort, Reason: fmt.Sprintf("port %d is out of range", s.Connection.Port)}
	}
	if s.Connection.Database == "" {
		report[FieldSourceDatabase] = "the source database name is required"
	}

	if s.Table == "" {
		report[FieldSourceTable] = "the source table is required in schema.table form"
	} else if err := checkTwoSegments(FieldSourceTable, s.Table); err != nil {
		return err
	}

	if s.Credentials.Username == "" {
		report[FieldSourceUsername] = "the source username is required"
	}
	if s.Credentials.Password == "" {
		report[FieldSourcePassword] = "the source password is required"
	}

	if s.Frequency != "" {
		switch s.Frequency {
		case ratatosk.Hourly, ratatosk.Daily, ratatosk.Weekly:
		default:
			return &ValidationError{Path: FieldSourceFrequency, Reason: fmt.Sprintf("unknown frequency %q", s.Frequency)}
		}
	}
	if s.IncrementField != "" && s.Frequency == "" {
		return &ValidationError{Path: FieldSourceFrequency, Reason: "a frequency is required when increment_field is set"}
	}

	if s.Schedule != "" {
		if _, err := cron.ParseStandard(s.Schedule); err != nil {
			return &ValidationError{Path: FieldSourceSchedule, Reason: fmt.Sprintf("invalid cron expression: %v", err)}
		}
	}
	return nil
}

func validateSink(s *SinkSpec, report Report) error {
	switch s.Kind {
	case "":
		report[FieldSinkKind] = "a sink kind is required (delta)"
	case ratatosk.SinkDelta:
	default:
		return &ValidationError{Path: FieldSinkKind, Reason: fmt.Sprintf("unknown sink kind %q", s.Kind)}
	}

	if s.Catalog == "" {
		report[FieldSinkCatalog] = "the target catalog is required"
	}
	if s.Database == "" {
		report[FieldSinkDatabase] = "the target database (schema) is required"
	}
	if s.Table == "" {
		report[FieldSinkTable] = "the target table is required"
	} else if strings.Contains(s.Table, ".") {
		return &ValidationError{Path: FieldSinkTable, Reason: "the target table must be a single segment; qualify with sink.database and sink.catalog"}
	}

	switch s.Layer {
	case "":
		report[FieldSinkLayer] = "a sink layer is required (bronze, silver or gold)"
	case ratatosk.Bronze, ratatosk.Silver, ratatosk.Gold:
	default:
		return &ValidationError{Path: FieldSinkLayer, Reason: fmt.Sprintf("unknown layer %q", s.Layer)}
	}

	switch s.Mode {
	case "":
		report[FieldSinkMode] = "a write mode is required (overwrite or append)"
	case ratatosk.Overwrite, ratatosk.Append:
	default:
		return &ValidationError{Path: FieldSinkMode, Reason: fmt.Sprintf("unknown write mode %q", s.Mode)}
	}
	return nil
}

func validateTransformations(ts []Transformation) error {
	for i, t := range ts {
		path := fmt.Sprintf("transformations[%d]", i)
		switch t.Kind {
		case TransformSelect:
			if len(t.Columns) == 0 {
				return &ValidationError{Path: path, Reason: "select requires at least one column"}
			}
		case TransformRename:
			if len(t.Renames) == 0 {
				return &ValidationError{Path: path, Reason: "rename requires at least one mapping"}
			}
			seen := map[string]bool{}
			for _, r := range t.Renames {
				if r.From == "" || r.To == "" {
					return &ValidationError{Path: path, Reason: "rename mappings must not have empty names"}
				}
				if seen[r.From] {
					return &ValidationError{Path: path, Reason: fmt.Sprintf("column %q is renamed twice", r.From)}
				}
				seen[r.From] = true
			}
		case TransformConvert:
			if t.Convert == nil || t.Convert.Column == "" {
				return &ValidationError{Path: path, Reason: "convert requires a column"}
			}
			if !ConvertTypes[t.Convert.To] {
				return &ValidationError{Path: path, Reason: fmt.Sprintf("unknown conversion target type %q", t.Convert.To)}
			}
		case TransformAggregate:
			if t.Aggregate == nil || len(t.Aggregate.Metrics) == 0 {
				return &ValidationError{Path: path, Reason: "aggregate requires at least one metric"}
			}
			for _, m := range t.Aggregate.Metrics {
				if m.Column == "" {
					return &ValidationError{Path: path, Reason: "aggregate metrics must name a column"}
				}
				if !AggregateFuncs[m.Func] {
					return &ValidationError{Path: path, Reason: fmt.Sprintf("unknown aggregate function %q", m.Func)}
				}
			}
		default:
			return &ValidationError{Path: path, Reason: fmt.Sprintf("unknown transformation kind %q", t.Kind)}
		}
	}
	return nil
}

func checkTwoSegments(path, table string) error {
	parts := strings.Split(table, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return &ValidationError{Path: path, Reason: fmt.Sprintf("%q must have exactly two non-empty dot-separated segments (schema.table)", table)}
	}
	return nil
}

func isIdentifier(s string, allowDash bool) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		case allowDash && r == '-':
		default:
			return false
		}
	}
	return true
}
