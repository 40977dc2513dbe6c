package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/internal/ai"
	"github.com/user/ratatosk/pkg/descriptor"
	"github.com/user/ratatosk/pkg/loader"
)

const completeDocument = `
source:
  type: postgres
  host: db.internal
  database: production
  table: public.orders
  options: {user: etl, password: secret}
sink:
  catalog: uc_tarhone
  database: test
  table: orders
  mode: overwrite
`

type fakeCompleter struct {
	content string
	err     error
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.content, f.err
}

type fakeSubmitter struct {
	uploadedScript string
	clusterID      string
}

func (f *fakeSubmitter) UploadScript(ctx context.Context, jobName, script string) (string, error) {
	f.uploadedScript = script
	return "dbfs:/FileStore/ratatosk/" + jobName + ".py", nil
}

func (f *fakeSubmitter) SubmitRun(ctx context.Context, jobName, scriptPath, clusterID string) (string, error) {
	f.clusterID = clusterID
	return "12345", nil
}

func newService(cfg Config, extractor *ai.Extractor, submitter ratatosk.Submitter) *Service {
	return New(cfg, extractor, submitter, ratatosk.NewDefaultLogger())
}

func TestResolveCompleteDocument(t *testing.T) {
	svc := newService(Config{}, nil, nil)

	out, err := svc.Resolve(context.Background(), Request{Document: []byte(completeDocument)})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out.State != StateComplete {
		t.Fatalf("state = %s, missing %v", out.State, out.Missing)
	}
	if out.RequestID == "" {
		t.Error("no request id assigned")
	}
	if out.Descriptor.Source.Connection.Port != 5432 {
		t.Errorf("port = %d, default policy not applied", out.Descriptor.Source.Connection.Port)
	}
	if out.Descriptor.JobName != "ingest_test_orders" {
		t.Errorf("job name = %q, want the derived default", out.Descriptor.JobName)
	}
	if out.Descriptor.Sink.Kind != ratatosk.SinkDelta || out.Descriptor.Sink.Layer != ratatosk.Bronze {
		t.Errorf("sink defaults not applied: %+v", out.Descriptor.Sink)
	}
}

func TestResolveIncompleteWithoutLLM(t *testing.T) {
	svc := newService(Config{}, nil, nil)

	out, err := svc.Resolve(context.Background(), Request{Document: []byte("source: {type: postgres}")})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out.State != StateIncomplete {
		t.Fatalf("state = %s, want incomplete", out.State)
	}
	if _, ok := out.Missing[descriptor.FieldSourceHost]; !ok {
		t.Errorf("missing report %v does not name the host", out.Missing)
	}
	if out.Descriptor != nil {
		t.Error("incomplete outcome must not carry a descriptor")
	}
}

func TestResolveDefaultCatalog(t *testing.T) {
	svc := newService(Config{DefaultCatalog: "uc_tarhone"}, nil, nil)
	text := `从postgres抽取数据，地址为db.internal，数据库名称为production，` +
		`用户名为etl，密码为secret，表名为public.orders，写入test.orders，覆盖模式`

	out, err := svc.Resolve(context.Background(), Request{NaturalLanguage: text})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out.State != StateComplete {
		t.Fatalf("state = %s, missing %v", out.State, out.Missing)
	}
	if out.Descriptor.Sink.Catalog != "uc_tarhone" {
		t.Errorf("catalog = %q, want the configured default", out.Descriptor.Sink.Catalog)
	}
}

func TestResolveReportsExactlyTheRemainingGap(t *testing.T) {
	svc := newService(Config{}, nil, nil)
	text := `从 postgres hostname=mydb 数据库=production 表=public.orders ` +
		`用户名=admin 密码=pass123 抽取数据，写入表 test.orders`

	out, err := svc.Resolve(context.Background(), Request{NaturalLanguage: text})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out.State != StateIncomplete {
		t.Fatalf("state = %s, want incomplete", out.State)
	}
	if len(out.Missing) != 1 {
		t.Fatalf("missing = %v, want exactly the catalog", out.Missing)
	}
	if _, ok := out.Missing[descriptor.FieldSinkCatalog]; !ok {
		t.Errorf("missing report %v does not name the catalog", out.Missing)
	}
}

func TestResolveDocumentOutranksText(t *testing.T) {
	svc := newService(Config{}, nil, nil)
	req := Request{
		Document:        []byte(completeDocument),
		NaturalLanguage: "host is other.example, 密码为different",
	}

	out, err := svc.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if out.Descriptor.Source.Connection.Host != "db.internal" {
		t.Errorf("host = %q, text must not override the document", out.Descriptor.Source.Connection.Host)
	}
	if out.Descriptor.Source.Credentials.Password != "secret" {
		t.Errorf("password = %q, text must not override the document", out.Descriptor.Source.Credentials.Password)
	}
}

func TestResolveLLMFillsGaps(t *testing.T) {
	completer := &fakeCompleter{content: `{"sink.catalog": "uc_tarhone"}`}
	extractor := ai.NewExtractor(completer, ratatosk.NewDefaultLogger())
	svc := newService(Config{}, extractor, nil)
	text := `从postgres抽取数据，地址为db.internal，数据库名称为production，` +
		`用户名为etl，密码为secret，表名为public.orders，写入test.orders，覆盖模式`

	out, err := svc.Resolve(context.Background(), Request{NaturalLanguage: text})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
	if out.State != StateComplete {
		t.Fatalf("state = %s, missing %v", out.State, out.Missing)
	}
	if out.Descriptor.Sink.Catalog != "uc_tarhone" {
		t.Errorf("catalog = %q, want the completion value", out.Descriptor.Sink.Catalog)
	}
}

func TestResolveDegradesWhenLLMUnavailable(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("connection refused")}
	extractor := ai.NewExtractor(completer, ratatosk.NewDefaultLogger())
	svc := newService(Config{}, extractor, nil)

	out, err := svc.Resolve(context.Background(), Request{NaturalLanguage: "从postgres抽取数据"})
	if err != nil {
		t.Fatalf("Resolve() error = %v, want a degraded outcome", err)
	}
	if out.State != StateIncomplete {
		t.Fatalf("state = %s, want incomplete", out.State)
	}
	if len(out.Missing) == 0 {
		t.Error("degraded outcome lost the missing-field report")
	}
}

func TestResolveSkipsLLMForDocumentOnlyRequests(t *testing.T) {
	completer := &fakeCompleter{content: `{}`}
	extractor := ai.NewExtractor(completer, ratatosk.NewDefaultLogger())
	svc := newService(Config{}, extractor, nil)

	out, err := svc.Resolve(context.Background(), Request{Document: []byte("source: {type: postgres}")})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for a document-only request", completer.calls)
	}
	if out.State != StateIncomplete {
		t.Errorf("state = %s, want incomplete", out.State)
	}
}

func TestResolveFatalErrors(t *testing.T) {
	svc := newService(Config{}, nil, nil)

	if _, err := svc.Resolve(context.Background(), Request{}); err == nil {
		t.Error("empty request did not fail")
	}

	var perr *loader.ParseError
	_, err := svc.Resolve(context.Background(), Request{Document: []byte("source: {table: orders}")})
	if !errors.As(err, &perr) {
		t.Errorf("malformed table: error = %v, want *ParseError", err)
	}

	_, err = svc.Resolve(context.Background(), Request{Document: []byte("source: {type: kafka}")})
	if !errors.Is(err, descriptor.ErrReservedKind) {
		t.Errorf("kafka source: error = %v, want ErrReservedKind", err)
	}
}

func TestPlanRendersCompleteRequests(t *testing.T) {
	svc := newService(Config{}, nil, nil)

	out, err := svc.Plan(context.Background(), Request{Document: []byte(completeDocument)})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if out.Script == "" {
		t.Fatal("no script rendered")
	}
	if !strings.Contains(out.Script, `writer.saveAsTable("uc_tarhone.test.orders")`) {
		t.Error("script does not target the resolved sink")
	}

	// Incomplete requests pass through without a script.
	out, err = svc.Plan(context.Background(), Request{Document: []byte("source: {type: postgres}")})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if out.Script != "" {
		t.Error("incomplete outcome carries a script")
	}
}

func TestSubmitUsesDefaultCluster(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := newService(Config{DefaultClusterID: "cluster-1"}, nil, sub)

	out, err := svc.Submit(context.Background(), Request{Document: []byte(completeDocument)}, "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sub.clusterID != "cluster-1" {
		t.Errorf("cluster = %q, want the configured default", sub.clusterID)
	}
	if out.RunID != "12345" {
		t.Errorf("run id = %q", out.RunID)
	}
	if out.ScriptPath != "dbfs:/FileStore/ratatosk/ingest_test_orders.py" {
		t.Errorf("script path = %q", out.ScriptPath)
	}
	if sub.uploadedScript != out.Script {
		t.Error("submitted script differs from the rendered one")
	}
}

func TestSubmitWithoutSubmitterFails(t *testing.T) {
	svc := newService(Config{}, nil, nil)
	if _, err := svc.Submit(context.Background(), Request{Document: []byte(completeDocument)}, "c"); err == nil {
		t.Error("Submit() without a collaborator did not fail")
	}
}
