package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/ratatosk"
	"github.com/user/ratatosk/internal/ai"
	"github.com/user/ratatosk/internal/api"
	"github.com/user/ratatosk/internal/config"
	"github.com/user/ratatosk/internal/databricks"
	"github.com/user/ratatosk/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to settings file (yaml or json)")
	port := flag.Int("port", 4000, "port for API server")
	flag.Parse()

	settings, err := config.LoadSettings(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if settings.Server.Port != 0 {
		*port = settings.Server.Port
	}

	logger := ratatosk.NewDefaultLogger()

	var extractor *ai.Extractor
	llmClient := ai.NewClient(ai.ClientConfig{
		Endpoint: settings.LLM.Endpoint,
		Model:    settings.LLM.Model,
		APIKey:   settings.LLM.APIKey,
		Timeout:  settings.LLM.Timeout.Std(),
	})
	if llmClient.Enabled() {
		extractor = ai.NewExtractor(llmClient, logger)
	} else {
		logger.Warn("no LLM endpoint configured, free-text completion disabled")
	}

	var submitter ratatosk.Submitter
	if settings.Databricks.Host != "" && settings.Databricks.Token != "" {
		submitter, err = databricks.NewClient(settings.Databricks.Host, settings.Databricks.Token, logger)
		if err != nil {
			log.Fatalf("Failed to create databricks client: %v", err)
		}
	} else {
		logger.Warn("no databricks workspace configured, submission disabled")
	}

	svc := service.New(service.Config{
		DefaultCatalog:   settings.Resolver.DefaultCatalog,
		LLMTimeout:       settings.Resolver.LLMTimeout.Std(),
		DefaultClusterID: settings.Databricks.DefaultClusterID,
	}, extractor, submitter, logger)

	server := api.NewServer(svc, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Routes(),
	}

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Printf("\nReceived signal %v, shutting down gracefully...\n", sig)
		cancel()
	}()

	fmt.Printf("Starting Ratatosk API server on :%d...\n", *port)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("API server failed: %v", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Shutting down API server...")
	_ = httpServer.Shutdown(context.Background())
}
