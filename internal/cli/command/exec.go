package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ebalduf/netkv/internal/cli/driver"
)

// dumpDrainWindow is how long exec waits for further dump lines after
// the last one; the protocol does not length-prefix multi-line
// replies.
const dumpDrainWindow = 200 * time.Millisecond

// ExecCommand returns the exec subcommand: send one command line and
// print the reply.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Send a single command to the server",
		ArgsUsage: "COMMAND [ARG...]",
		Action:    execAction,
	}
}

func execAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("usage: netkv-cli exec COMMAND [ARG...]", 2)
	}

	line := strings.Join(c.Args().Slice(), " ")
	client := driver.NewClient(c.String("server"))
	defer client.Close()

	if strings.EqualFold(c.Args().First(), "dump") {
		lines, err := client.ExecuteMulti(line, dumpDrainWindow)
		if err != nil {
			return fmt.Errorf("exec failed: %w", err)
		}
		for _, l := range lines {
			fmt.Println(l)
		}
		return nil
	}

	reply, err := client.Execute(line)
	if err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	fmt.Println(reply)
	return nil
}
