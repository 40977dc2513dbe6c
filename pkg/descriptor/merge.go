package descriptor

import (
	"fmt"

	"github.com/user/ratatosk"
)

// Merge copies every field that src resolved and dst has not, following the
// trust order structured > deterministic extraction > generative completion:
// a field already in resolved is never overwritten, regardless of what src
// carries. It returns the updated resolved set.
func Merge(dst *JobDescriptor, resolved FieldSet, src *JobDescriptor, srcResolved FieldSet) FieldSet {
	for _, path := range srcResolved.Paths() {
		if resolved.Has(path) {
			continue
		}
		copyField(dst, src, path)
		resolved.Add(path)
	}
	return resolved
}

func copyField(dst, src *JobDescriptor, path string) {
	switch path {
	case FieldJobName:
		dst.JobName = src.JobName
	case FieldDescription:
		dst.Description = src.Description
	case FieldSourceKind:
		dst.Source.Kind = src.Source.Kind
	case FieldSourceHost:
		dst.Source.Connection.Host = src.Source.Connection.Host
	case FieldSourcePort:
		dst.Source.Connection.Port = src.Source.Connection.Port
	case FieldSourceDatabase:
		dst.Source.Connection.Database = src.Source.Connection.Database
	case FieldSourceTable:
		dst.Source.Table = src.Source.Table
	case FieldSourceUsername:
		dst.Source.Credentials.Username = src.Source.Credentials.Username
	case FieldSourcePassword:
		dst.Source.Credentials.Password = src.Source.Credentials.Password
	case FieldSourceIncrement:
		dst.Source.IncrementField = src.Source.IncrementField
	case FieldSourceFrequency:
		dst.Source.Frequency = src.Source.Frequency
	case FieldSourceSchedule:
		dst.Source.Schedule = src.Source.Schedule
	case FieldTransformations:
		dst.Transformations = src.Clone().Transformations
	case FieldSinkKind:
		dst.Sink.Kind = src.Sink.Kind
	case FieldSinkCatalog:
		dst.Sink.Catalog = src.Sink.Catalog
	case FieldSinkDatabase:
		dst.Sink.Database = src.Sink.Database
	case FieldSinkTable:
		dst.Sink.Table = src.Sink.Table
	case FieldSinkLayer:
		dst.Sink.Layer = src.Sink.Layer
	case FieldSinkMode:
		dst.Sink.Mode = src.Sink.Mode
	case FieldSinkPath:
		dst.Sink.Path = src.Sink.Path
	}
}

// ResolvedFields derives the resolved set for a descriptor whose fields were
// populated directly (e.g. by the structured loader): every non-zero field
// counts as resolved.
func ResolvedFields(d *JobDescriptor) FieldSet {
	s := NewFieldSet()
	if d.JobName != "" {
		s.Add(FieldJobName)
	}
	if d.Description != "" {
		s.Add(FieldDescription)
	}
	if d.Source.Kind != "" {
		s.Add(FieldSourceKind)
	}
	if d.Source.Connection.Host != "" {
		s.Add(FieldSourceHost)
	}
	if d.Source.Connection.Port != 0 {
		s.Add(FieldSourcePort)
	}
	if d.Source.Connection.Database != "" {
		s.Add(FieldSourceDatabase)
	}
	if d.Source.Table != "" {
		s.Add(FieldSourceTable)
	}
	if d.Source.Credentials.Username != "" {
		s.Add(FieldSourceUsername)
	}
	if d.Source.Credentials.Password != "" {
		s.Add(FieldSourcePassword)
	}
	if d.Source.IncrementField != "" {
		s.Add(FieldSourceIncrement)
	}
	if d.Source.Frequency != "" {
		s.Add(FieldSourceFrequency)
	}
	if d.Source.Schedule != "" {
		s.Add(FieldSourceSchedule)
	}
	if len(d.Transformations) > 0 {
		s.Add(FieldTransformations)
	}
	if d.Sink.Kind != "" {
		s.Add(FieldSinkKind)
	}
	if d.Sink.Catalog != "" {
		s.Add(FieldSinkCatalog)
	}
	if d.Sink.Database != "" {
		s.Add(FieldSinkDatabase)
	}
	if d.Sink.Table != "" {
		s.Add(FieldSinkTable)
	}
	if d.Sink.Layer != "" {
		s.Add(FieldSinkLayer)
	}
	if d.Sink.Mode != "" {
		s.Add(FieldSinkMode)
	}
	if d.Sink.Path != "" {
		s.Add(FieldSinkPath)
	}
	return s
}

// SetField assigns one field by its dotted path from a string value,
// converting where the field is not a string. It reports whether the path
// named a known settable field and the value converted cleanly.
func SetField(d *JobDescriptor, path, value string) bool {
	if value == "" {
		return false
	}
	switch path {
	case FieldJobName:
		d.JobName = value
	case FieldDescription:
		d.Description = value
	case FieldSourceKind:
		d.Source.Kind = ratatosk.SourceKind(value)
	case FieldSourceHost:
		d.Source.Connection.Host = value
	case FieldSourcePort:
		port, err := parsePort(value)
		if err != nil {
			return false
		}
		d.Source.Connection.Port = port
	case FieldSourceDatabase:
		d.Source.Connection.Database = value
	case FieldSourceTable:
		d.Source.Table = value
	case FieldSourceUsername:
		d.Source.Credentials.Username = value
	case FieldSourcePassword:
		d.Source.Credentials.Password = value
	case FieldSourceIncrement:
		d.Source.IncrementField = value
	case FieldSourceFrequency:
		d.Source.Frequency = ratatosk.Frequency(value)
	case FieldSourceSchedule:
		d.Source.Schedule = value
	case FieldSinkKind:
		d.Sink.Kind = ratatosk.SinkKind(value)
	case FieldSinkCatalog:
		d.Sink.Catalog = value
	case FieldSinkDatabase:
		d.Sink.Database = value
	case FieldSinkTable:
		d.Sink.Table = value
	case FieldSinkLayer:
		d.Sink.Layer = ratatosk.Layer(value)
	case FieldSinkMode:
		d.Sink.Mode = ratatosk.WriteMode(value)
	case FieldSinkPath:
		d.Sink.Path = value
	default:
		return false
	}
	return true
}

func parsePort(value string) (int, error) {
	var port int
	_, err := fmt.Sscanf(value, "%d", &port)
	return port, err
}

// DefaultPorts is the explicit per-kind port policy applied by ApplyDefaults.
var DefaultPorts = map[ratatosk.SourceKind]int{
	ratatosk.SourcePostgres:  5432,
	ratatosk.SourceMySQL:     3306,
	ratatosk.SourceSQLServer: 1433,
}

// DefaultSchemas is the explicit per-kind schema policy for one-segment
// source tables. MySQL is absent on purpose: its schema is the connection
// database, handled separately.
var DefaultSchemas = map[ratatosk.SourceKind]string{
	ratatosk.SourcePostgres:  "public",
	ratatosk.SourceSQLServer: "dbo",
}
