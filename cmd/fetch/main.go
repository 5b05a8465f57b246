package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"papermirror/internal/app"
	"papermirror/internal/shared/config"
	"papermirror/internal/shared/logger"
	"papermirror/internal/shared/types"
	"papermirror/internal/transfer"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	resourcesFile := flag.String("resources", "resources.json", "Path to the resources JSON file")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "papermirror.ini")

	// 1. Load behavior configuration. A missing file just means defaults.
	cfg := new(types.Config)
	if _, err := os.Stat(iniPath); err == nil {
		if err := config.LoadIni(cfg, iniPath); err != nil {
			// Use standard fmt before logger is initialized.
			fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
			os.Exit(1)
		}
	} else {
		config.ApplyDefaults(cfg)
	}

	// 1.1 Initialize logging
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// 2. Load the requested resources
	resources, err := loadResources(*resourcesFile)
	if err != nil {
		logger.Fatal().Err(err).Msgf("Failed to load resources file '%s'", *resourcesFile)
	}
	if len(resources) == 0 {
		logger.Fatal().Msgf("Resources file '%s' lists nothing to fetch", *resourcesFile)
	}

	// 3. Fix the session's proxy and mirror, then run the transfers
	ctx := context.Background()
	session, err := app.NewSession(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start session")
	}

	reports := session.Run(ctx, resources)
	printSummary(resources, reports)

	for _, report := range reports {
		if report.State == transfer.StateExhausted {
			os.Exit(1)
		}
	}
}

func loadResources(fileName string) ([]app.Resource, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	var resources []app.Resource
	if err := json.Unmarshal(data, &resources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resources file: %w", err)
	}
	return resources, nil
}

func printSummary(resources []app.Resource, reports []*transfer.Report) {
	fmt.Println("\nTransfer Summary:")
	for i, report := range reports {
		fmt.Printf("%s (run %s):\n", resources[i].Name, report.RunID)
		for _, outcome := range report.Outcomes {
			if outcome.Success {
				fmt.Printf("  [ok]   %s: %s\n", outcome.Label, outcome.Path)
			} else {
				fmt.Printf("  [fail] %s: %s\n", outcome.Label, outcome.Reason)
			}
		}
		if report.Succeeded() == nil {
			fmt.Printf("  no link succeeded (%s)\n", report.State)
		}
	}
}
