// Command canvasflow serves the workflow API or executes a single workflow
// file.
//
//	canvasflow serve [-config config.yml] [-env .env]
//	canvasflow run [-config config.yml] [-env .env] workflow.json
//	canvasflow version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/canvasflow/config"
	"github.com/kbukum/canvasflow/version"
)

const serviceName = "canvasflow"

// exitError carries a process exit code. An empty msg prints nothing.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.msg != "" {
				fmt.Fprintln(os.Stderr, exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return &exitError{code: 2}
	}
	switch args[0] {
	case "serve":
		return serve(ctx, args[1:], stderr)
	case "run":
		return runWorkflow(ctx, args[1:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.Get().String())
		return nil
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return &exitError{code: 2, msg: fmt.Sprintf("unknown command %q", args[0])}
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: canvasflow <command> [flags]

Commands:
  serve     start the HTTP API
  run       execute a workflow file once and print the result
  version   print build information
`)
}

// configFlags are shared by every command that loads configuration.
type configFlags struct {
	configFile string
	envFile    string
}

func (f *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configFile, "config", "", "config file (default: searched in ./cmd/canvasflow, ./config and .)")
	fs.StringVar(&f.envFile, "env", "", ".env file (default: searched next to the config)")
}

func (f *configFlags) load() (*config.AppConfig, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	cfg := &config.AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseFlags treats -h as success and any other flag error as a usage error.
func parseFlags(fs *flag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, &exitError{code: 2, msg: err.Error()}
	}
	return false, nil
}
