// Package loader parses portable YAML/JSON config documents into the
// canonical descriptor shape. It performs no semantic inference: absent
// fields stay absent for the validator to report, and present fields with
// the wrong type fail immediately with a ParseError naming the field path.
// This path is always offline.
package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/pkg/descriptor"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ParseError reports malformed structured input. It is fatal to the call
// that produced it.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Reason)
}

type document struct {
	JobName         string         `yaml:"job_name,omitempty"`
	Description     string         `yaml:"description,omitempty"`
	Source          *sourceDoc     `yaml:"source,omitempty"`
	Transformations []transformDoc `yaml:"transformations,omitempty"`
	Sink            *sinkDoc       `yaml:"sink,omitempty"`
}

type sourceDoc struct {
	Type           string            `yaml:"type,omitempty"`
	JDBCURL        string            `yaml:"jdbc_url,omitempty"`
	Host           string            `yaml:"host,omitempty"`
	Port           int               `yaml:"port,omitempty"`
	Database       string            `yaml:"database,omitempty"`
	Table          string            `yaml:"table,omitempty"`
	IncrementField string            `yaml:"increment_field,omitempty"`
	Frequency      string            `yaml:"frequency,omitempty"`
	Schedule       string            `yaml:"schedule,omitempty"`
	Options        map[string]string `yaml:"options,omitempty"`
}

type sinkDoc struct {
	Type     string            `yaml:"type,omitempty"`
	Catalog  string            `yaml:"catalog,omitempty"`
	Database string            `yaml:"database,omitempty"`
	Table    string            `yaml:"table,omitempty"`
	Layer    string            `yaml:"layer,omitempty"`
	Mode     string            `yaml:"mode,omitempty"`
	Path     string            `yaml:"path,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// Load parses a YAML or JSON document into a descriptor plus the set of
// field paths the document actually populated. JSON parses through the same
// decoder since YAML is a superset of it.
func Load(data []byte) (*descriptor.JobDescriptor, descriptor.FieldSet, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, nil, &ParseError{Path: "(document)", Reason: err.Error()}
	}
	if generic == nil {
		return nil, nil, &ParseError{Path: "(document)", Reason: "the document is empty"}
	}
	if err := checkShape(generic); err != nil {
		return nil, nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &ParseError{Path: "(document)", Reason: err.Error()}
	}
	return mapDocument(&doc)
}

func checkShape(generic any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(generic),
	)
	if err != nil {
		return &ParseError{Path: "(document)", Reason: err.Error()}
	}
	if result.Valid() {
		return nil
	}
	first := result.Errors()[0]
	return &ParseError{Path: first.Field(), Reason: first.Description()}
}

func mapDocument(doc *document) (*descriptor.JobDescriptor, descriptor.FieldSet, error) {
	d := &descriptor.JobDescriptor{}
	resolved := descriptor.NewFieldSet()

	if doc.JobName != "" {
		d.JobName = doc.JobName
		resolved.Add(descriptor.FieldJobName)
	}
	if doc.Description != "" {
		d.Description = doc.Description
		resolved.Add(descriptor.FieldDescription)
	}
	if doc.Source != nil {
		if err := mapSource(doc.Source, d, resolved); err != nil {
			return nil, nil, err
		}
	}
	for i, t := range doc.Transformations {
		tr, err := t.toTransformation(i)
		if err != nil {
			return nil, nil, err
		}
		d.Transformations = append(d.Transformations, tr)
	}
	if len(d.Transformations) > 0 {
		resolved.Add(descriptor.FieldTransformations)
	}
	if doc.Sink != nil {
		if err := mapSink(doc.Sink, d, resolved); err != nil {
			return nil, nil, err
		}
	}
	return d, resolved, nil
}

func mapSource(src *sourceDoc, d *descriptor.JobDescriptor, resolved descriptor.FieldSet) error {
	if src.Type != "" {
		d.Source.Kind = ratatosk.SourceKind(src.Type)
		resolved.Add(descriptor.FieldSourceKind)
	}
	if src.JDBCURL != "" {
		host, port, database, err := parseJDBCURL(src.JDBCURL)
		if err != nil {
			return err
		}
		d.Source.Connection.Host = host
		d.Source.Connection.Database = database
		resolved.Add(descriptor.FieldSourceHost)
		resolved.Add(descriptor.FieldSourceDatabase)
		if port != 0 {
			d.Source.Connection.Port = port
			resolved.Add(descriptor.FieldSourcePort)
		}
	}
	if src.Host != "" {
		d.Source.Connection.Host = src.Host
		resolved.Add(descriptor.FieldSourceHost)
	}
	if src.Port != 0 {
		d.Source.Connection.Port = src.Port
		resolved.Add(descriptor.FieldSourcePort)
	}
	if src.Database != "" {
		d.Source.Connection.Database = src.Database
		resolved.Add(descriptor.FieldSourceDatabase)
	}
	if src.Table != "" {
		parts := strings.Split(src.Table, ".")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return &ParseError{
				Path:   descriptor.FieldSourceTable,
				Reason: fmt.Sprintf("%q must have exactly two non-empty dot-separated segments (schema.table)", src.Table),
			}
		}
		d.Source.Table = src.Table
		resolved.Add(descriptor.FieldSourceTable)
	}
	if src.IncrementField != "" {
		d.Source.IncrementField = src.IncrementField
		resolved.Add(descriptor.FieldSourceIncrement)
	}
	if src.Frequency != "" {
		d.Source.Frequency = ratatosk.Frequency(src.Frequency)
		resolved.Add(descriptor.FieldSourceFrequency)
	}
	if src.Schedule != "" {
		d.Source.Schedule = src.Schedule
		resolved.Add(descriptor.FieldSourceSchedule)
	}
	for k, v := range src.Options {
		switch k {
		case "user":
			d.Source.Credentials.Username = v
			resolved.Add(descriptor.FieldSourceUsername)
		case "password":
			d.Source.Credentials.Password = v
			resolved.Add(descriptor.FieldSourcePassword)
		default:
			if d.Source.Options == nil {
				d.Source.Options = map[string]string{}
			}
			d.Source.Options[k] = v
		}
	}
	return nil
}

func mapSink(snk *sinkDoc, d *descriptor.JobDescriptor, resolved descriptor.FieldSet) error {
	if snk.Type != "" {
		d.Sink.Kind = ratatosk.SinkKind(snk.Type)
		resolved.Add(descriptor.FieldSinkKind)
	}
	if snk.Catalog != "" {
		d.Sink.Catalog = snk.Catalog
		resolved.Add(descriptor.FieldSinkCatalog)
	}
	if snk.Database != "" {
		d.Sink.Database = snk.Database
		resolved.Add(descriptor.FieldSinkDatabase)
	}
	if snk.Table != "" {
		table := snk.Table
		if strings.Contains(table, ".") {
			parts := strings.SplitN(table, ".", 2)
			if parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], ".") {
				return &ParseError{
					Path:   descriptor.FieldSinkTable,
					Reason: fmt.Sprintf("%q is not a valid schema.table value", table),
				}
			}
			if snk.Database != "" && snk.Database != parts[0] {
				return &ParseError{
					Path:   descriptor.FieldSinkTable,
					Reason: fmt.Sprintf("table %q carries schema %q but sink.database is %q", table, parts[0], snk.Database),
				}
			}
			d.Sink.Database = parts[0]
			resolved.Add(descriptor.FieldSinkDatabase)
			table = parts[1]
		}
		d.Sink.Table = table
		resolved.Add(descriptor.FieldSinkTable)
	}
	if snk.Layer != "" {
		d.Sink.Layer = ratatosk.Layer(snk.Layer)
		resolved.Add(descriptor.FieldSinkLayer)
	}
	if snk.Mode != "" {
		d.Sink.Mode = ratatosk.WriteMode(snk.Mode)
		resolved.Add(descriptor.FieldSinkMode)
	}
	if snk.Path != "" {
		d.Sink.Path = snk.Path
		resolved.Add(descriptor.FieldSinkPath)
	}
	if len(snk.Options) > 0 {
		d.Sink.Options = make(map[string]string, len(snk.Options))
		for k, v := range snk.Options {
			d.Sink.Options[k] = v
		}
	}
	return nil
}

// parseJDBCURL extracts host, port and database from a JDBC URL. Supported
// forms: jdbc:<driver>://host[:port]/database and the SQL Server variant
// jdbc:sqlserver://host[:port];databaseName=database.
func parseJDBCURL(url string) (host string, port int, database string, err error) {
	rest, ok := strings.CutPrefix(url, "jdbc:")
	if !ok {
		return "", 0, "", &ParseError{Path: "source.jdbc_url", Reason: fmt.Sprintf("%q does not start with jdbc:", url)}
	}
	_, rest, ok = strings.Cut(rest, "://")
	if !ok {
		return "", 0, "", &ParseError{Path: "source.jdbc_url", Reason: fmt.Sprintf("%q has no host section", url)}
	}

	if i := strings.Index(rest, ";"); i >= 0 {
		// SQL Server style: host:port;databaseName=db;...
		addr := rest[:i]
		for _, prop := range strings.Split(rest[i+1:], ";") {
			if v, ok := strings.CutPrefix(prop, "databaseName="); ok {
				database = v
			}
		}
		host, port, err = splitAddr(addr, url)
		if err != nil {
			return "", 0, "", err
		}
		return host, port, database, nil
	}

	addr, database, _ := strings.Cut(rest, "/")
	if j := strings.IndexAny(database, "?;"); j >= 0 {
		database = database[:j]
	}
	host, port, err = splitAddr(addr, url)
	if err != nil {
		return "", 0, "", err
	}
	return host, port, database, nil
}

func splitAddr(addr, url string) (string, int, error) {
	host, portStr, found := strings.Cut(addr, ":")
	if host == "" {
		return "", 0, &ParseError{Path: "source.jdbc_url", Reason: fmt.Sprintf("%q has an empty host", url)}
	}
	if !found {
		return host, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, &ParseError{Path: "source.jdbc_url", Reason: fmt.Sprintf("%q has a non-numeric port", url)}
	}
	return host, port, nil
}

// Serialize renders a descriptor back into its portable YAML form so that
// Load(Serialize(d)) round-trips.
func Serialize(d *descriptor.JobDescriptor) ([]byte, error) {
	doc := document{
		JobName:     d.JobName,
		Description: d.Description,
	}

	src := sourceDoc{
		Type:           string(d.Source.Kind),
		Host:           d.Source.Connection.Host,
		Port:           d.Source.Connection.Port,
		Database:       d.Source.Connection.Database,
		Table:          d.Source.Table,
		IncrementField: d.Source.IncrementField,
		Frequency:      string(d.Source.Frequency),
		Schedule:       d.Source.Schedule,
	}
	opts := map[string]string{}
	for k, v := range d.Source.Options {
		opts[k] = v
	}
	if d.Source.Credentials.Username != "" {
		opts["user"] = d.Source.Credentials.Username
	}
	if d.Source.Credentials.Password != "" {
		opts["password"] = d.Source.Credentials.Password
	}
	if len(opts) > 0 {
		src.Options = opts
	}
	doc.Source = &src

	for _, t := range d.Transformations {
		doc.Transformations = append(doc.Transformations, transformDoc{Transformation: t})
	}

	doc.Sink = &sinkDoc{
		Type:     string(d.Sink.Kind),
		Catalog:  d.Sink.Catalog,
		Database: d.Sink.Database,
		Table:    d.Sink.Table,
		Layer:    string(d.Sink.Layer),
		Mode:     string(d.Sink.Mode),
		Path:     d.Sink.Path,
		Options:  d.Sink.Options,
	}

	return yaml.Marshal(&doc)
}
