package databricks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/ratatosk"
)

func TestNewClientRequiresHostAndToken(t *testing.T) {
	if _, err := NewClient("", "token", ratatosk.NewDefaultLogger()); err == nil {
		t.Error("NewClient accepted an empty host")
	}
	if _, err := NewClient("https://host", "", ratatosk.NewDefaultLogger()); err == nil {
		t.Error("NewClient accepted an empty token")
	}
}

func TestUploadScript(t *testing.T) {
	var gotPath, gotContents, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2.0/dbfs/put" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Path      string `json:"path"`
			Contents  string `json:"contents"`
			Overwrite bool   `json:"overwrite"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		gotPath, gotContents = body.Path, body.Contents
		if !body.Overwrite {
			t.Error("upload is not idempotent without overwrite")
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "dapi-token", ratatosk.NewDefaultLogger())
	if err != nil {
		t.Fatal(err)
	}
	path, err := c.UploadScript(context.Background(), "ingest_test_orders", "print('hi')")
	if err != nil {
		t.Fatalf("UploadScript() error = %v", err)
	}
	if path != "dbfs:/FileStore/ratatosk/ingest_test_orders.py" {
		t.Errorf("path = %q", path)
	}
	if gotPath != path {
		t.Errorf("uploaded path = %q, returned %q", gotPath, path)
	}
	if gotAuth != "Bearer dapi-token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	decoded, err := base64.StdEncoding.DecodeString(gotContents)
	if err != nil || string(decoded) != "print('hi')" {
		t.Errorf("contents = %q (decode err %v)", gotContents, err)
	}
}

func TestSubmitRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2.2/jobs/runs/submit" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			RunName string `json:"run_name"`
			Tasks   []struct {
				ExistingClusterID string `json:"existing_cluster_id"`
				SparkPythonTask   struct {
					PythonFile string `json:"python_file"`
				} `json:"spark_python_task"`
			} `json:"tasks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.RunName != "ingest_test_orders" || len(body.Tasks) != 1 ||
			body.Tasks[0].ExistingClusterID != "cluster-1" ||
			body.Tasks[0].SparkPythonTask.PythonFile != "dbfs:/FileStore/ratatosk/ingest_test_orders.py" {
			t.Errorf("unexpected payload: %+v", body)
		}
		w.Write([]byte(`{"run_id": 98765}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "dapi-token", ratatosk.NewDefaultLogger())
	if err != nil {
		t.Fatal(err)
	}
	runID, err := c.SubmitRun(context.Background(), "ingest_test_orders",
		"dbfs:/FileStore/ratatosk/ingest_test_orders.py", "cluster-1")
	if err != nil {
		t.Fatalf("SubmitRun() error = %v", err)
	}
	if runID != "98765" {
		t.Errorf("run id = %q", runID)
	}

	if _, err := c.SubmitRun(context.Background(), "job", "path", ""); err == nil {
		t.Error("SubmitRun accepted an empty cluster id")
	}
}

func TestRunState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2.2/jobs/runs/get" || r.URL.Query().Get("run_id") != "98765" {
			t.Errorf("request = %s", r.URL.String())
		}
		w.Write([]byte(`{"state": {"life_cycle_state": "RUNNING"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "dapi-token", ratatosk.NewDefaultLogger())
	if err != nil {
		t.Fatal(err)
	}
	state, err := c.RunState(context.Background(), "98765")
	if err != nil {
		t.Fatalf("RunState() error = %v", err)
	}
	if state != "RUNNING" {
		t.Errorf("state = %q", state)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "bad-token", ratatosk.NewDefaultLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.UploadScript(context.Background(), "job", "script"); err == nil {
		t.Error("UploadScript ignored a non-200 response")
	}
}
