package nlu

import (
	"reflect"
	"testing"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/pkg/descriptor"
)

const chineseRequest = `请从postgres数据库抽取数据，地址为db.internal，端口为5432，` +
	`数据库名称为production，用户名为etl，密码为secret，表名为public.orders，` +
	`写入uc_tarhone.test.orders，覆盖模式，青铜层`

func TestExtractChineseRequest(t *testing.T) {
	r := Extract(chineseRequest)
	d := r.Descriptor

	if d.Source.Kind != ratatosk.SourcePostgres {
		t.Errorf("source kind = %q", d.Source.Kind)
	}
	if d.Source.Connection.Host != "db.internal" {
		t.Errorf("host = %q", d.Source.Connection.Host)
	}
	if d.Source.Connection.Port != 5432 {
		t.Errorf("port = %d", d.Source.Connection.Port)
	}
	if d.Source.Connection.Database != "production" {
		t.Errorf("database = %q", d.Source.Connection.Database)
	}
	if d.Source.Credentials.Username != "etl" || d.Source.Credentials.Password != "secret" {
		t.Errorf("credentials = %+v", d.Source.Credentials)
	}
	if d.Source.Table != "public.orders" {
		t.Errorf("source table = %q", d.Source.Table)
	}
	if d.Sink.Catalog != "uc_tarhone" || d.Sink.Database != "test" || d.Sink.Table != "orders" {
		t.Errorf("sink target = %q.%q.%q", d.Sink.Catalog, d.Sink.Database, d.Sink.Table)
	}
	if d.Sink.Mode != ratatosk.Overwrite {
		t.Errorf("mode = %q", d.Sink.Mode)
	}
	if d.Sink.Layer != ratatosk.Bronze {
		t.Errorf("layer = %q", d.Sink.Layer)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", r.Warnings)
	}
}

func TestExtractEnglishRequest(t *testing.T) {
	text := `Pull data from mysql, host=db.internal, port: 3307, database is shop, ` +
		`user etl password secret, source table is shop.orders, ` +
		`write to uc_tarhone.test.orders in append mode, runs daily`

	r := Extract(text)
	d := r.Descriptor

	if d.Source.Kind != ratatosk.SourceMySQL {
		t.Errorf("source kind = %q", d.Source.Kind)
	}
	if d.Source.Connection.Host != "db.internal" || d.Source.Connection.Port != 3307 {
		t.Errorf("connection = %+v", d.Source.Connection)
	}
	if d.Source.Connection.Database != "shop" {
		t.Errorf("database = %q", d.Source.Connection.Database)
	}
	if d.Source.Table != "shop.orders" {
		t.Errorf("source table = %q", d.Source.Table)
	}
	if d.Sink.Catalog != "uc_tarhone" || d.Sink.Database != "test" || d.Sink.Table != "orders" {
		t.Errorf("sink target = %q.%q.%q", d.Sink.Catalog, d.Sink.Database, d.Sink.Table)
	}
	if d.Sink.Mode != ratatosk.Append {
		t.Errorf("mode = %q", d.Sink.Mode)
	}
	if d.Source.Frequency != ratatosk.Daily {
		t.Errorf("frequency = %q", d.Source.Frequency)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	a := Extract(chineseRequest)
	b := Extract(chineseRequest)
	if !reflect.DeepEqual(a.Descriptor, b.Descriptor) {
		t.Error("two extractions over the same text produced different descriptors")
	}
	if !reflect.DeepEqual(a.Resolved.Paths(), b.Resolved.Paths()) {
		t.Error("two extractions resolved different field sets")
	}
}

func TestExtractFirstOccurrenceWinsWithWarning(t *testing.T) {
	text := `host=first.internal host=second.internal 覆盖写入 test.orders 然后追加`

	r := Extract(text)

	if r.Descriptor.Source.Connection.Host != "first.internal" {
		t.Errorf("host = %q, want the first occurrence", r.Descriptor.Source.Connection.Host)
	}

	var hostWarn, modeWarn *Ambiguity
	for i := range r.Warnings {
		switch r.Warnings[i].Field {
		case descriptor.FieldSourceHost:
			hostWarn = &r.Warnings[i]
		case descriptor.FieldSinkMode:
			modeWarn = &r.Warnings[i]
		}
	}
	if hostWarn == nil {
		t.Fatalf("no host ambiguity warning in %v", r.Warnings)
	}
	if hostWarn.Kept != "first.internal" || hostWarn.Ignored != "second.internal" {
		t.Errorf("host warning = %+v", hostWarn)
	}
	if modeWarn == nil {
		t.Fatalf("no mode ambiguity warning in %v", r.Warnings)
	}
	if modeWarn.Kept != "overwrite" || modeWarn.Ignored != "append" {
		t.Errorf("mode warning = %+v", modeWarn)
	}
}

func TestExtractWeakTablePattern(t *testing.T) {
	r := Extract(`请把orders表抽取到test.orders`)
	d := r.Descriptor

	if d.Source.Table != "orders" {
		t.Errorf("source table = %q, want the bare table name", d.Source.Table)
	}
	if d.Sink.Database != "test" || d.Sink.Table != "orders" {
		t.Errorf("sink = %q.%q", d.Sink.Database, d.Sink.Table)
	}
}

func TestExtractAliasesNeverConflict(t *testing.T) {
	r := Extract(`migrate the pgsql instance, a postgresql database, host=db.internal, into table test.orders`)
	if r.Descriptor.Source.Kind != ratatosk.SourcePostgres {
		t.Errorf("source kind = %q", r.Descriptor.Source.Kind)
	}
	for _, w := range r.Warnings {
		if w.Field == descriptor.FieldSourceKind {
			t.Errorf("aliases of the same kind produced a warning: %+v", w)
		}
	}
}

func TestExtractLeavesUnmentionedFieldsUnresolved(t *testing.T) {
	r := Extract(`从mysql抽取数据`)
	if r.Resolved.Has(descriptor.FieldSourceHost) || r.Resolved.Has(descriptor.FieldSinkTable) {
		t.Errorf("resolved = %v, want only the kind", r.Resolved.Paths())
	}
	if !r.Resolved.Has(descriptor.FieldSourceKind) {
		t.Error("kind was not resolved")
	}
	if r.Descriptor.Sink.Mode != "" {
		t.Errorf("mode = %q, extraction must not apply defaults", r.Descriptor.Sink.Mode)
	}
}

func TestExtractSchedule(t *testing.T) {
	r := Extract(`ingest public.orders, schedule: "0 3 * * *", into table test.orders`)
	if r.Descriptor.Source.Schedule != "0 3 * * *" {
		t.Errorf("schedule = %q", r.Descriptor.Source.Schedule)
	}
}
