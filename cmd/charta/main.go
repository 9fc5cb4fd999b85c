// -----------------------------------------------------------------------
// Charta - map report print service
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/charta/internal/app"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/server"
)

func main() {
	defer common.RecoverWithCrashFile()

	configPath := flag.String("config", "charta.toml", "Path to configuration file")
	port := flag.Int("port", 0, "Override server port")
	host := flag.String("host", "", "Override server host")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	version := common.LoadVersionFromFile()
	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	common.InstallCrashHandler("./logs")

	// Missing config file falls back to defaults plus env overrides.
	paths := []string{}
	if _, err := os.Stat(*configPath); err == nil {
		paths = append(paths, *configPath)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *port, *host)

	logger := common.InitLogger(config)
	common.PrintBanner(version)

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("config", *configPath).
		Msg("Starting Charta")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	httpServer := server.New(application)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	application.Close()
}
