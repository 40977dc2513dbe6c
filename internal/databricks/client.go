// Package databricks is a thin client for the "submit and run" collaborator.
// The core hands over rendered script text and a cluster id; it never
// inspects execution results beyond the opaque run id.
package databricks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/user/ratatosk"
)

const scriptFolder = "dbfs:/FileStore/ratatosk"

// Client implements ratatosk.Submitter against the Databricks REST API.
type Client struct {
	host   string
	token  string
	http   *http.Client
	logger ratatosk.Logger
}

// NewClient creates a Client. Host and token must be configured; an
// unconfigured submission boundary is a wiring error, not a degradable one.
func NewClient(host, token string, logger ratatosk.Logger) (*Client, error) {
	if host == "" || token == "" {
		return nil, fmt.Errorf("databricks host and token must be configured")
	}
	return &Client{
		host:   host,
		token:  token,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}, nil
}

// UploadScript puts the script on DBFS and returns its path.
func (c *Client) UploadScript(ctx context.Context, jobName, script string) (string, error) {
	path := fmt.Sprintf("%s/%s.py", scriptFolder, jobName)
	payload := map[string]any{
		"path":      path,
		"contents":  base64.StdEncoding.EncodeToString([]byte(script)),
		"overwrite": true,
	}
	if err := c.post(ctx, "/api/2.0/dbfs/put", payload, nil); err != nil {
		return "", fmt.Errorf("uploading script to %s: %w", path, err)
	}
	c.logger.Info("script uploaded", "path", path, "job", jobName)
	return path, nil
}

// SubmitRun starts a one-off python run for an uploaded script.
func (c *Client) SubmitRun(ctx context.Context, jobName, scriptPath, clusterID string) (string, error) {
	if clusterID == "" {
		return "", fmt.Errorf("a cluster id is required to submit a run")
	}
	payload := map[string]any{
		"run_name": jobName,
		"tasks": []map[string]any{
			{
				"task_key":            "ingest",
				"existing_cluster_id": clusterID,
				"spark_python_task":   map[string]string{"python_file": scriptPath},
			},
		},
	}
	var res struct {
		RunID int64 `json:"run_id"`
	}
	if err := c.post(ctx, "/api/2.2/jobs/runs/submit", payload, &res); err != nil {
		return "", fmt.Errorf("submitting run for %s: %w", jobName, err)
	}
	c.logger.Info("run submitted", "job", jobName, "run_id", res.RunID, "cluster", clusterID)
	return fmt.Sprintf("%d", res.RunID), nil
}

// RunState returns the life-cycle state of a run.
func (c *Client) RunState(ctx context.Context, runID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.host+"/api/2.2/jobs/runs/get?run_id="+runID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("runs/get returned status %d", resp.StatusCode)
	}

	var res struct {
		State struct {
			LifeCycleState string `json:"life_cycle_state"`
		} `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	return res.State.LifeCycleState, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
