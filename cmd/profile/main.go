package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/urfave/cli"

	"lightning-book/config"
	"lightning-book/loadgen"
	"lightning-book/logging"
	"lightning-book/matching"
)

var (
	configPath string
	cpuProfile string
	memProfile string
)

func runProfile(c *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if c.IsSet("price-tree") {
		cfg.Engine.PriceTree = c.String("price-tree")
	}
	if c.IsSet("duration") {
		cfg.Benchmark.Duration = c.Duration("duration")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	treeType, err := cfg.Engine.TreeType()
	if err != nil {
		return err
	}

	cpuFile, err := os.Create(cpuProfile)
	if err != nil {
		return err
	}
	defer cpuFile.Close()
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return err
	}
	logger.Info().Str("cpu_profile", cpuProfile).Msg("cpu profiling started")

	engine := matching.NewEngine(
		matching.WithPriceTree(treeType),
		matching.WithRequestBuffer(cfg.Engine.RequestBuffer),
		matching.WithFillBuffer(cfg.Engine.FillBuffer),
		matching.WithLogger(logger),
	)
	engine.Start()
	res, runErr := loadgen.Run(context.Background(), engine, cfg.Benchmark, logger)
	engine.Stop()
	pprof.StopCPUProfile()
	if runErr != nil {
		return runErr
	}

	if memProfile != "" {
		memFile, err := os.Create(memProfile)
		if err != nil {
			return err
		}
		defer memFile.Close()
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			return err
		}
	}

	fmt.Printf("operations: %d (%.0f ops/sec), fills: %d\n", res.Operations, res.OpsPerSecond(), res.Fills)
	fmt.Printf("inspect with: go tool pprof -http=:8080 %s\n", cpuProfile)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "profile"
	app.Usage = "Run the benchmark workload under the CPU profiler"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the YAML config file (defaults to $LOB_CONFIG)",
			Destination: &configPath,
		},
		cli.StringFlag{
			Name:        "cpuprofile",
			Value:       "cpu.prof",
			Usage:       "CPU profile output file",
			Destination: &cpuProfile,
		},
		cli.StringFlag{
			Name:        "memprofile",
			Usage:       "heap profile output file, written after the run",
			Destination: &memProfile,
		},
		cli.StringFlag{Name: "price-tree, t", Usage: "side book implementation: rbtree, btree or list"},
		cli.DurationFlag{Name: "duration, d", Usage: "how long to generate load"},
	}
	app.Action = runProfile

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "profile failed: %v\n", err)
		os.Exit(1)
	}
}
