package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"warfield/arena"
	"warfield/combat"
	"warfield/config"
	"warfield/engine"
	"warfield/server"
)

func main() {
	configPath := flag.String("config", "warfield.toml", "path to TOML config")
	catalogPath := flag.String("catalog", "", "optional YAML unit catalog override")
	scenarioPath := flag.String("arena", "", "run an arena batch from a YAML scenario file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	catalog := combat.DefaultCatalog()
	if *catalogPath != "" {
		catalog, err = combat.LoadCatalog(*catalogPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load unit catalog")
		}
	}

	if *scenarioPath != "" {
		runArena(catalog, *scenarioPath)
		return
	}

	terrain := engine.StaticTerrain{
		{Q: 0, R: 0}: {Terrain: combat.TerrainPlains},
		{Q: 1, R: 0}: {Terrain: combat.TerrainHills, Entrenched: true},
		{Q: 0, R: 1}: {Terrain: combat.TerrainForest},
	}
	registry := engine.New(catalog, terrain, engine.WithTuning(cfg.Tuning()))

	srv := server.New(registry, cfg)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func runArena(catalog *combat.Catalog, scenarioPath string) {
	scenarios, err := arena.LoadScenarios(scenarioPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scenarios")
	}
	runner := arena.NewRunner(catalog)
	if err := runner.RunAll("batch", scenarios); err != nil {
		log.Fatal().Err(err).Msg("arena batch failed")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
