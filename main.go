package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"lightning-book/config"
	"lightning-book/domain"
	"lightning-book/logging"
	"lightning-book/matching"
)

var configPath string

// runDemo replays a short scripted session against a fresh engine and prints
// every fill and the final book.
func runDemo(c *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	treeType, err := cfg.Engine.TreeType()
	if err != nil {
		return err
	}

	engine := matching.NewEngine(
		matching.WithPriceTree(treeType),
		matching.WithLogger(logger),
		matching.WithFillBuffer(cfg.Engine.FillBuffer),
	)
	engine.Start()
	defer engine.Stop()

	ctx := context.Background()
	script := []domain.Order{
		domain.NewLimitOrder(1, domain.SideAsk, 100, 10),
		domain.NewLimitOrder(2, domain.SideAsk, 150, 15),
		domain.NewLimitOrder(3, domain.SideAsk, 200, 20),
		domain.NewLimitOrder(4, domain.SideBid, 90, 5),
		domain.NewLimitOrder(5, domain.SideBid, 180, 30),
	}
	for _, order := range script {
		if err := engine.AddOrder(ctx, order); err != nil {
			return err
		}
		fmt.Printf("added  %v\n", order)
		if fills := engine.Fills(); fills != nil {
			for _, fill := range fills.Drain(nil) {
				fmt.Printf("fill   #%d %d @ %d maker=%d taker=%d\n",
					fill.Seq, fill.Quantity, fill.Price, fill.MakerOrderID, fill.TakerOrderID)
			}
		}
	}

	if err := engine.ChangeOrderQuantity(ctx, 3, 12); err != nil {
		return err
	}
	if err := engine.ChangeOrderPrice(ctx, 4, 95); err != nil {
		return err
	}

	bids, asks, err := engine.GetDepth(ctx, 10)
	if err != nil {
		return err
	}
	fmt.Println("\nasks:")
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Printf("  %6d x %d (%d orders)\n", asks[i].Price, asks[i].Quantity, asks[i].Orders)
	}
	fmt.Println("bids:")
	for _, level := range bids {
		fmt.Printf("  %6d x %d (%d orders)\n", level.Price, level.Quantity, level.Orders)
	}
	return engine.CheckInvariants(ctx)
}

func main() {
	app := cli.NewApp()
	app.Name = "lightning-book"
	app.Usage = "Single-instrument limit order book with price-time priority matching"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the YAML config file (defaults to $LOB_CONFIG)",
			Destination: &configPath,
		},
	}
	app.Action = runDemo

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "command failed with error: %v\n", err)
		os.Exit(1)
	}
}
