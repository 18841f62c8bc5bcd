// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/silsila-app/silsila/cmd/silsila/config"
	"github.com/silsila-app/silsila/pkg/logging"
	"github.com/silsila-app/silsila/services/family"
	"github.com/silsila-app/silsila/services/family/seeder"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "silsila",
	Short: "silsila - family genealogy graph service",
	Long: `silsila manages a genealogical family graph: people, their
relationships, ancestry queries, and a moderation queue for proposed
additions.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Load(); err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
	},
}

var (
	servePort    int
	serveDataDir string
	serveInMem   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the family graph API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.Run()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with a demo genealogy",
	Long: `seed writes a three-generation demo family into the configured
store. Intended for fresh databases; running it twice duplicates the
demo people under new ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		sdr := seeder.New(svc.Store(), buildLogger())
		return sdr.Seed(context.Background())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the silsila version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("silsila", Version)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port (overrides config)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "",
		"BadgerDB directory (overrides config)")
	serveCmd.Flags().BoolVar(&serveInMem, "in-memory", false,
		"run with an in-memory store (data lost on exit)")
	seedCmd.Flags().StringVar(&serveDataDir, "data-dir", "",
		"BadgerDB directory (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

// buildLogger constructs the service logger from the global config.
func buildLogger() *logging.Logger {
	return logging.New(logging.Config{
		Level:   logging.ParseLevel(config.Global.Logging.Level),
		LogDir:  config.Global.Logging.Dir,
		Service: "silsila",
		JSON:    config.Global.Logging.JSON,
	})
}

// newService assembles a family.Service from the global config plus any
// command-line overrides.
func newService() (family.Service, error) {
	logger := buildLogger()
	logger.SetAsDefault()

	cfg := family.Config{
		Port:          config.Global.Server.Port,
		DataDir:       config.ExpandPath(config.Global.Storage.DataDir),
		OTelEndpoint:  config.Global.Tracing.OTLPEndpoint,
		EnableMetrics: config.Global.Server.EnableMetrics,
		GinMode:       config.Global.Server.GinMode,
		Logger:        logger,
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveDataDir != "" {
		cfg.DataDir = config.ExpandPath(serveDataDir)
	}
	if serveInMem {
		cfg.DataDir = ""
	}

	return family.New(cfg)
}
