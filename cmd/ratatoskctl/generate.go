package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/internal/service"
)

var (
	requestText    string
	outputPath     string
	defaultCatalog string
	clusterID      string
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(submitCmd)

	for _, c := range []*cobra.Command{resolveCmd, generateCmd, submitCmd} {
		c.Flags().StringVar(&requestText, "text", "", "natural-language request text")
		c.Flags().StringVar(&defaultCatalog, "catalog", "", "default Unity Catalog name for requests that omit one")
	}
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the rendered script to a file instead of stdout")
	submitCmd.Flags().StringVar(&clusterID, "cluster", "", "cluster id to run the job on")
}

// buildRequest assembles a resolution request from an optional document file
// and the --text flag.
func buildRequest(args []string) (service.Request, error) {
	req := service.Request{NaturalLanguage: requestText}
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return req, fmt.Errorf("reading document: %w", err)
		}
		req.Document = data
	}
	if req.NaturalLanguage == "" && req.Document == nil {
		return req, fmt.Errorf("provide a document file, --text, or both")
	}
	return req, nil
}

func localService() *service.Service {
	return service.New(service.Config{DefaultCatalog: defaultCatalog},
		nil, nil, ratatosk.NewDefaultLogger())
}

func printOutcome(out *service.Outcome) {
	fmt.Printf("state: %s\n", out.State)
	for _, w := range out.Warnings {
		fmt.Printf("⚠️  %s: kept %q, ignored %q\n", w.Field, w.Kept, w.Ignored)
	}
	if out.State == service.StateComplete {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out.Descriptor)
		return
	}
	fmt.Println("missing fields:")
	for path, reason := range out.Missing {
		fmt.Printf("  - %s: %s\n", path, reason)
	}
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Resolve a request into a job descriptor and report what is missing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(args)
		if err != nil {
			return err
		}
		out, err := localService().Resolve(context.Background(), req)
		if err != nil {
			return err
		}
		printOutcome(out)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Resolve a request and render its batch ingestion script",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(args)
		if err != nil {
			return err
		}
		out, err := localService().Plan(context.Background(), req)
		if err != nil {
			return err
		}
		if out.State != service.StateComplete {
			printOutcome(out)
			return fmt.Errorf("request is incomplete, cannot render")
		}
		if outputPath == "" {
			fmt.Print(out.Script)
			return nil
		}
		if err := os.WriteFile(outputPath, []byte(out.Script), 0o644); err != nil {
			return err
		}
		fmt.Printf("✅ Script written to %s\n", outputPath)
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Submit a request to a running Ratatosk server for upload and execution",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(args)
		if err != nil {
			return err
		}

		body, err := json.Marshal(map[string]string{
			"text":       req.NaturalLanguage,
			"document":   string(req.Document),
			"cluster_id": clusterID,
		})
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 60 * time.Second}
		url := viper.GetString("url") + "/api/submit"
		resp, err := client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
		}

		var res struct {
			State      string `json:"state"`
			ScriptPath string `json:"script_path"`
			RunID      string `json:"run_id"`
		}
		if err := json.Unmarshal(data, &res); err != nil {
			return err
		}
		if res.RunID == "" {
			fmt.Printf("state: %s (not submitted)\n%s\n", res.State, string(data))
			return nil
		}
		fmt.Printf("✅ Submitted run %s (script at %s)\n", res.RunID, res.ScriptPath)
		return nil
	},
}
