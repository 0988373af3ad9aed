// test-model-outputs runs the catalog prompts against several models and
// reports whether each response parses into universities, details and
// program details.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/config"
	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

type stepResult struct {
	Name       string
	Success    bool
	Detail     string
	DurationMs int64
}

type modelResult struct {
	Model string
	Steps []stepResult
}

func (r modelResult) passed() bool {
	for _, s := range r.Steps {
		if !s.Success {
			return false
		}
	}
	return len(r.Steps) > 0
}

func main() {
	modelsFlag := flag.String("models", "", "comma-separated models to test (default: configured model and fallback)")
	query := flag.String("query", "Top Engineering", "search query to send")
	timeout := flag.Duration("timeout", 120*time.Second, "timeout for each model")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	cfg, err := config.Load("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	targets := []string{cfg.Content.Model, cfg.Content.FallbackModel}
	if *modelsFlag != "" {
		targets = strings.Split(*modelsFlag, ",")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, cfg.Content, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create content client: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Catalog response test: provider=%s query=%q\n", client.Provider(), *query)
	fmt.Println(strings.Repeat("=", 80))

	var results []modelResult
	for _, model := range targets {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		fmt.Printf("\n%s\nTesting: %s\n%s\n", strings.Repeat("-", 80), model, strings.Repeat("-", 80))

		// No fallback: each model must stand on its own.
		catalog := services.NewCatalogService(client, services.CatalogConfig{Model: model, LocationModel: model}, logger)
		result := testModel(ctx, catalog, model, *query, *timeout)
		for _, s := range result.Steps {
			fmt.Printf("  %-8s %-5s %6dms  %s\n", s.Name, passFail(s.Success), s.DurationMs, s.Detail)
		}
		results = append(results, result)
	}

	fmt.Printf("\n%s\nSUMMARY\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))
	allPassed := len(results) > 0
	for _, r := range results {
		fmt.Printf("%s: %s\n", passFail(r.passed()), r.Model)
		allPassed = allPassed && r.passed()
	}
	if !allPassed {
		os.Exit(1)
	}
}

func testModel(ctx context.Context, catalog services.CatalogService, model, query string, timeout time.Duration) modelResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := modelResult{Model: model}
	step := func(name string, fn func() (bool, string)) bool {
		start := time.Now()
		ok, detail := fn()
		result.Steps = append(result.Steps, stepResult{
			Name: name, Success: ok, Detail: detail, DurationMs: time.Since(start).Milliseconds(),
		})
		return ok
	}

	var universities []models.University
	if !step("search", func() (bool, string) {
		var err error
		universities, err = catalog.Search(ctx, query)
		if err != nil {
			return false, err.Error()
		}
		return len(universities) > 0, fmt.Sprintf("%d universities", len(universities))
	}) {
		return result
	}

	var details *models.UniversityDetails
	if !step("details", func() (bool, string) {
		var err error
		details, err = catalog.GetDetails(ctx, universities[0].Name)
		switch {
		case err != nil:
			return false, err.Error()
		case details == nil:
			return false, "no details for " + universities[0].Name
		}
		return len(details.Programs) > 0, fmt.Sprintf("%d programs, %d sources", len(details.Programs), len(details.Sources))
	}) {
		return result
	}

	step("program", func() (bool, string) {
		program, err := catalog.GetProgramDetails(ctx, details.Name, details.Programs[0])
		switch {
		case err != nil:
			return false, err.Error()
		case program == nil:
			return false, "no details for " + details.Programs[0].Name
		}
		return program.Overview != "", fmt.Sprintf("%d curriculum items", len(program.Curriculum))
	})

	step("location", func() (bool, string) {
		info := catalog.GetLocationInfo(ctx, details.Name, nil)
		return info.Text != "", truncate(info.Text, 50)
	})

	return result
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
