package command

import (
	"testing"

	"github.com/urfave/cli/v2"
)

func TestApp_Structure(t *testing.T) {
	app := App()

	if app.Name != "netkv-cli" {
		t.Errorf("Name = %q, want netkv-cli", app.Name)
	}

	want := map[string]bool{"exec": false, "bench": false}
	for _, cmd := range app.Commands {
		if _, ok := want[cmd.Name]; ok {
			want[cmd.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestApp_ServerFlagDefault(t *testing.T) {
	app := App()

	for _, f := range app.Flags {
		sf, ok := f.(*cli.StringFlag)
		if !ok || sf.Name != "server" {
			continue
		}
		if sf.Value != "127.0.0.1:8080" {
			t.Errorf("server flag default = %q, want 127.0.0.1:8080", sf.Value)
		}
		return
	}
	t.Error("server flag not registered")
}

func TestExec_NoArgs(t *testing.T) {
	app := App()
	// Keep cli.Exit from terminating the test process.
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run([]string{"netkv-cli", "exec"})
	if err == nil {
		t.Error("exec with no args succeeded, want usage error")
	}
}
