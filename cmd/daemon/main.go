// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anirelay/anirelay/internal/config"
	"github.com/anirelay/anirelay/internal/daemon"
	rlog "github.com/anirelay/anirelay/internal/log"
	"github.com/anirelay/anirelay/internal/version"
	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	info := version.Info()
	rlog.Configure(rlog.Config{
		Level:   "info",
		Service: "anirelay",
		Version: info,
	})
	logger := rlog.WithComponent("daemon")

	if err := loadEnvFile(*envFile); err != nil {
		logger.Fatal().Err(err).Str("path", *envFile).Msg("failed to load env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(rlog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	rlog.Configure(rlog.Config{
		Level:   cfg.LogLevel,
		Service: "anirelay",
		Version: info,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(rlog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Str("listen", cfg.ListenAddr).
		Msg("configuration loaded")

	rt, err := daemon.Build(ctx, cfg, info)
	if err != nil {
		logger.Fatal().Err(err).Str(rlog.FieldEvent, "startup.build_failed").Msg("failed to assemble relay")
	}

	app, err := daemon.NewApp(config.NewHolder(cfg, loader), rt)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Str(rlog.FieldEvent, "daemon.failed").Msg("daemon exited with error")
	}
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
