package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	reina "github.com/kausaltech/reina-model"
)

func main() {
	loggerType := flag.String("logger", "csv", "data logger type (csv|sqlite|none)")
	seedNum := flag.Int64("seed", 0, "random seed override. Uses the scenario's seed by default")
	verbose := flag.Bool("v", false, "enable per-day debug logging")
	extinctStop := flag.Bool("stop-extinct", false, "stop a run early once the epidemic is extinguished")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal().Msg("usage: reina [flags] <scenario.toml>")
	}
	conf, err := reina.LoadScenarioConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load scenario configuration")
	}
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid scenario configuration")
	}
	if *seedNum != 0 {
		conf.SetRandomSeed(*seedNum)
	}
	baseSeed := conf.RandomSeed()

	firstStart := time.Now()
	for i := 1; i <= conf.NumInstances(); i++ {
		start := time.Now()
		// Every instance gets its own seed and its own logger files.
		conf.SetRandomSeed(baseSeed + int64(i-1))
		var logger reina.DataLogger
		switch *loggerType {
		case "csv":
			logger = reina.NewCSVLogger(conf.LogPath(), i)
		case "sqlite":
			logger = reina.NewSQLiteLogger(conf.LogPath(), i)
		case "none":
		default:
			log.Fatal().Msgf("%s is not a valid logger type (csv|sqlite|none)", *loggerType)
		}
		sim, err := reina.NewSimulation(conf, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating a new simulation from the configuration file")
		}
		if *extinctStop {
			sim.AddStopCondition(reina.NewEpidemicExtinguishedCondition())
		}
		rs, err := sim.Run(i)
		if err != nil {
			log.Fatal().Err(err).Int("instance", i).Msg("simulation failed")
		}
		last := rs.Last()
		log.Info().
			Int("instance", i).
			Int("all_infected", last.AttributeTotal("all_infected")).
			Int("dead", last.AttributeTotal("dead")).
			Dur("elapsed", time.Since(start)).
			Msg("finished instance")
	}
	log.Info().Dur("elapsed", time.Since(firstStart)).Msg("completed all runs")
}
