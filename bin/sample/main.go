package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	reina "github.com/kausaltech/reina-model"
)

func main() {
	what := flag.String("what", reina.SymptomSeveritySample, "distribution to sample")
	age := flag.Int("age", 40, "age to sample the distribution for")
	severity := flag.Int("severity", 0, "severity code for period distributions")
	n := flag.Int("n", 10000, "number of draws")
	limitMobility := flag.Int("limit-mobility", 0, "sample under a mobility limitation percentage")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal().Msg("usage: sample [flags] <scenario.toml>")
	}
	conf, err := reina.LoadScenarioConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load scenario configuration")
	}
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid scenario configuration")
	}
	ctx, err := conf.NewContext()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create context")
	}
	if *limitMobility != 0 {
		iv := &reina.Intervention{
			Type:      reina.LimitMobilityType,
			Date:      "2020-01-01",
			Reduction: *limitMobility,
		}
		if err := ctx.ApplyIntervention(iv); err != nil {
			log.Fatal().Err(err).Msg("cannot apply mobility limitation")
		}
	}

	res, err := ctx.Sample(*what, *age, *severity, *n)
	if err != nil {
		log.Fatal().Err(err).Msg("sampling failed")
	}

	if *what == reina.InfectiousnessSample {
		for i, day := range res.Days {
			fmt.Printf("%4d %8.4f\n", day, res.Values[i])
		}
		return
	}

	counts := make(map[float64]int)
	var mean float64
	for _, v := range res.Values {
		counts[v]++
		mean += v
	}
	mean /= float64(len(res.Values))
	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	for _, k := range keys {
		label := fmt.Sprintf("%g", k)
		if *what == reina.SymptomSeveritySample {
			label = reina.SeverityToStr[int(k)]
		}
		fmt.Printf("%-14s %8.4f\n", label, float64(counts[k])/float64(len(res.Values)))
	}
	fmt.Printf("mean: %.3f over %d draws\n", mean, len(res.Values))
}
