package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ebalduf/netkv/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "netkv-cli",
		Usage:   "netkv command-line client",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			BenchCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "netkv server address",
			EnvVars: []string{"NETKV_SERVER"},
			Value:   "127.0.0.1:8080",
		},
	}
}
