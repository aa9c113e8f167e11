// Package main provides a standalone health check command for container probes
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/wellpack/engine/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Config holds command-line configuration
type Config struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
}

// checkResult mirrors the JSON written by the health endpoint
type checkResult struct {
	Status  healthcheck.Status `json:"status"`
	Version string             `json:"version"`
	Checks  []struct {
		Name       string             `json:"name"`
		Status     healthcheck.Status `json:"status"`
		Message    string             `json:"message"`
		DurationMS float64            `json:"duration_ms"`
	} `json:"checks"`
}

func main() {
	os.Exit(run(parseFlags(), os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.URL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080/health"), "Health check endpoint URL")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&config.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&config.OutputFormat, "format", "text", "Output format: text, json")
	flag.StringVar(&config.ExpectedStatus, "expect", "degraded", "Worst acceptable status: healthy, degraded")
	flag.IntVar(&config.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&config.RetryDelay, "retry-delay", time.Second, "Delay between retries")

	flag.Parse()
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// run performs the check and returns the process exit code
func run(config Config, out io.Writer) int {
	client := &http.Client{Timeout: config.Timeout}

	var lastError error
	for attempt := 0; attempt <= config.RetryCount; attempt++ {
		if attempt > 0 {
			if config.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", config.RetryDelay, attempt, config.RetryCount)
			}
			time.Sleep(config.RetryDelay)
		}

		result, err := fetch(client, config.URL)
		if err != nil {
			lastError = err
			if config.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}
		return report(result, config, out)
	}

	fmt.Fprintf(out, "Health check failed: %v\n", lastError)
	return exitCodeError
}

func fetch(client *http.Client, url string) (*checkResult, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result checkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("invalid health response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &result, nil
}

// report prints the result and maps it to an exit code
func report(result *checkResult, config Config, out io.Writer) int {
	if config.OutputFormat == "json" {
		_ = json.NewEncoder(out).Encode(result)
	} else {
		fmt.Fprintf(out, "status=%s version=%s\n", result.Status, result.Version)
		if config.Verbose {
			for _, c := range result.Checks {
				fmt.Fprintf(out, "  %-10s %-9s %6.0fms %s\n", c.Name, c.Status, c.DurationMS, c.Message)
			}
		}
	}

	if acceptable(result.Status, healthcheck.Status(config.ExpectedStatus)) {
		return exitCodeSuccess
	}
	return exitCodeFailure
}

func acceptable(got, worst healthcheck.Status) bool {
	rank := map[healthcheck.Status]int{
		healthcheck.StatusHealthy:   0,
		healthcheck.StatusDegraded:  1,
		healthcheck.StatusUnhealthy: 2,
	}
	g, ok := rank[got]
	if !ok {
		return false
	}
	w, ok := rank[worst]
	if !ok {
		w = rank[healthcheck.StatusHealthy]
	}
	return g <= w
}
