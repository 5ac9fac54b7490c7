package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ebalduf/netkv/internal/cli/driver"
)

// BenchCommand returns the bench subcommand: issue a burst of write
// commands with generated keys and report throughput.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Run a write benchmark against the server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "requests",
				Aliases: []string{"n"},
				Usage:   "Number of write commands to issue",
				Value:   1000,
			},
			&cli.IntFlag{
				Name:    "connections",
				Aliases: []string{"c"},
				Usage:   "Number of concurrent connections",
				Value:   4,
			},
			&cli.IntFlag{
				Name:  "value-size",
				Usage: "Size of each random value in bytes",
				Value: 32,
			},
			&cli.IntFlag{
				Name:  "ttl",
				Usage: "Per-entry TTL in seconds (0 uses the server default)",
				Value: 0,
			},
		},
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	cfg := driver.BenchConfig{
		Requests:    c.Int("requests"),
		Connections: c.Int("connections"),
		ValueSize:   c.Int("value-size"),
		TTLSeconds:  c.Int("ttl"),
	}

	res, err := driver.RunBench(c.String("server"), cfg)
	if err != nil {
		return fmt.Errorf("bench failed: %w", err)
	}

	fmt.Printf("requests:   %d\n", res.Requests)
	fmt.Printf("errors:     %d\n", res.Errors)
	fmt.Printf("elapsed:    %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Printf("throughput: %.0f req/s\n", res.Throughput())
	return nil
}
