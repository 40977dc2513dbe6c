// Package generator renders a complete job descriptor into an executable
// batch ETL script. Rendering is a pure function: identical descriptors
// always produce byte-identical script text.
package generator

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/pkg/descriptor"
)

// templateKey selects a script template by source and sink kind. Adding
// support for a kind is a table entry, not a new type hierarchy.
type templateKey struct {
	Source ratatosk.SourceKind
	Sink   ratatosk.SinkKind
}

// jdbcProfile carries the per-kind JDBC connection parameters.
type jdbcProfile struct {
	Driver string
	URL    func(c descriptor.Connection) string
}

var profiles = map[templateKey]jdbcProfile{
	{ratatosk.SourcePostgres, ratatosk.SinkDelta}: {
		Driver: "org.postgresql.Driver",
		URL: func(c descriptor.Connection) string {
			return fmt.Sprintf("jdbc:postgresql://%s:%d/%s", c.Host, c.Port, c.Database)
		},
	},
	{ratatosk.SourceMySQL, ratatosk.SinkDelta}: {
		Driver: "com.mysql.cj.jdbc.Driver",
		URL: func(c descriptor.Connection) string {
			return fmt.Sprintf("jdbc:mysql://%s:%d/%s", c.Host, c.Port, c.Database)
		},
	},
	{ratatosk.SourceSQLServer, ratatosk.SinkDelta}: {
		Driver: "com.microsoft.sqlserver.jdbc.SQLServerDriver",
		URL: func(c descriptor.Connection) string {
			return fmt.Sprintf("jdbc:sqlserver://%s:%d;databaseName=%s", c.Host, c.Port, c.Database)
		},
	},
}

var batchTemplate = template.Must(template.New("batch_delta").Parse(batchDeltaTemplate))

type keyValue struct {
	Key   string
	Value string
}

type scriptView struct {
	JobName         string
	Description     string
	Frequency       string
	Schedule        string
	Driver          string
	JDBCURL         string
	SourceTable     string
	Username        string
	Password        string
	SourceOptions   []keyValue
	IncrementField  string
	Transformations []string
	CurationHook    bool
	Layer           string
	Mode            string
	Path            string
	Target          string
	SinkOptions     []keyValue
}

// Render produces the script text for a complete descriptor. Callers are
// expected to validate first; an unknown kind pair is the only error here.
func Render(d *descriptor.JobDescriptor) (string, error) {
	profile, ok := profiles[templateKey{d.Source.Kind, d.Sink.Kind}]
	if !ok {
		return "", fmt.Errorf("no template registered for source %q and sink %q", d.Source.Kind, d.Sink.Kind)
	}

	view := scriptView{
		JobName:        escape(d.JobName),
		Description:    d.Description,
		Frequency:      string(d.Source.Frequency),
		Schedule:       d.Source.Schedule,
		Driver:         profile.Driver,
		JDBCURL:        escape(profile.URL(d.Source.Connection)),
		SourceTable:    escape(d.Source.Table),
		Username:       escape(d.Source.Credentials.Username),
		Password:       escape(d.Source.Credentials.Password),
		SourceOptions:  sortedOptions(d.Source.Options),
		IncrementField: escape(d.Source.IncrementField),
		CurationHook:   d.Sink.Layer == ratatosk.Silver || d.Sink.Layer == ratatosk.Gold,
		Layer:          string(d.Sink.Layer),
		Mode:           string(d.Sink.Mode),
		Path:           escape(d.Sink.Path),
		Target:         escape(d.FullyQualifiedTarget()),
		SinkOptions:    sortedOptions(d.Sink.Options),
	}
	for _, t := range d.Transformations {
		view.Transformations = append(view.Transformations, renderTransformation(t))
	}

	var out strings.Builder
	if err := batchTemplate.Execute(&out, view); err != nil {
		return "", err
	}
	return out.String(), nil
}

// renderTransformation maps one transformation variant to its code
// fragment. Fragments are concatenated in input order by the template.
func renderTransformation(t descriptor.Transformation) string {
	switch t.Kind {
	case descriptor.TransformSelect:
		return fmt.Sprintf("df = df.select(%s)", quoteList(t.Columns))
	case descriptor.TransformRename:
		var lines []string
		for _, r := range t.Renames {
			lines = append(lines, fmt.Sprintf("df = df.withColumnRenamed(%q, %q)", r.From, r.To))
		}
		return strings.Join(lines, "\n")
	case descriptor.TransformConvert:
		return fmt.Sprintf("df = df.withColumn(%q, F.col(%q).cast(%q))",
			t.Convert.Column, t.Convert.Column, t.Convert.To)
	case descriptor.TransformAggregate:
		var metrics []string
		for _, m := range t.Aggregate.Metrics {
			metrics = append(metrics, fmt.Sprintf("F.%s(%q).alias(%q)",
				m.Func, m.Column, m.Func+"_"+m.Column))
		}
		return fmt.Sprintf("df = df.groupBy(%s).agg(%s)",
			quoteList(t.Aggregate.GroupBy), strings.Join(metrics, ", "))
	}
	return ""
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func sortedOptions(m map[string]string) []keyValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]keyValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyValue{Key: escape(k), Value: escape(m[k])})
	}
	return out
}

// escape makes a value safe inside a double-quoted python string literal.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
