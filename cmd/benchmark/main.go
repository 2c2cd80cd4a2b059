package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"

	"lightning-book/config"
	"lightning-book/loadgen"
	"lightning-book/logging"
	"lightning-book/matching"
	"lightning-book/metrics"
)

var configPath string

func benchmarkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the YAML config file (defaults to $LOB_CONFIG)",
			Destination: &configPath,
		},
		cli.StringFlag{Name: "price-tree, t", Usage: "side book implementation: rbtree, btree or list"},
		cli.DurationFlag{Name: "duration, d", Usage: "how long to generate load"},
		cli.IntFlag{Name: "workers, w", Usage: "concurrent producers"},
		cli.Int64Flag{Name: "seed", Usage: "workload seed"},
		cli.StringFlag{Name: "log-level", Usage: "zerolog level"},
	}
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if c.IsSet("price-tree") {
		cfg.Engine.PriceTree = c.String("price-tree")
	}
	if c.IsSet("duration") {
		cfg.Benchmark.Duration = c.Duration("duration")
	}
	if c.IsSet("workers") {
		cfg.Benchmark.Workers = c.Int("workers")
	}
	if c.IsSet("seed") {
		cfg.Benchmark.Seed = c.Int64("seed")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

func runBenchmark(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	treeType, err := cfg.Engine.TreeType()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	engine := matching.NewEngine(
		matching.WithPriceTree(treeType),
		matching.WithRequestBuffer(cfg.Engine.RequestBuffer),
		matching.WithFillBuffer(cfg.Engine.FillBuffer),
		matching.WithLogger(logger),
		matching.WithMetrics(collector),
	)
	engine.Start()
	defer engine.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := loadgen.Run(ctx, engine, cfg.Benchmark, logger)
	if err != nil {
		return err
	}

	fmt.Printf("price tree:   %s\n", treeType)
	fmt.Printf("workers:      %d\n", cfg.Benchmark.Workers)
	fmt.Printf("elapsed:      %v\n", res.Elapsed)
	fmt.Printf("operations:   %d (%.0f ops/sec)\n", res.Operations, res.OpsPerSecond())
	fmt.Printf("fills:        %d (%.0f fills/sec)\n", res.Fills, res.FillsPerSecond())
	fmt.Printf("resting:      %d orders\n\n", res.Resting)
	return printOperations(reg)
}

// printOperations writes the lob_operations_total breakdown as a table
func printOperations(reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	var rows []string
	for _, mf := range families {
		if mf.GetName() != "lob_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			rows = append(rows, fmt.Sprintf("\t%s\t%s\t%.0f\t", labels["op"], labels["result"], m.GetCounter().GetValue()))
		}
	}
	sort.Strings(rows)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.Debug)
	if _, err := fmt.Fprintln(tw, "\tOperation\tResult\tCount\t"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, strings.Join(rows, "\n")); err != nil {
		return err
	}
	return tw.Flush()
}

func main() {
	app := cli.NewApp()
	app.Name = "benchmark"
	app.Usage = "Drive the order book with a generated add/cancel/amend workload and report throughput"
	app.Flags = benchmarkFlags()
	app.Action = runBenchmark

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "benchmark failed: %v\n", err)
		os.Exit(1)
	}
}
