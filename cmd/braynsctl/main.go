// Command braynsctl drives a Brayns renderer from the shell.
//
//	braynsctl [global flags] <command> [command flags]
//
// Settings come from -config (TOML or YAML), then .env and BRAYNS_*
// variables, then global flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/zoobzio/brayns"
	"github.com/zoobzio/brayns/config"
	"github.com/zoobzio/brayns/metrics"
	"github.com/zoobzio/brayns/rockets"
	"github.com/zoobzio/capitan"
)

// command runs one subcommand against connected explorers.
type command struct {
	summary string
	run     func(ctx context.Context, env *environment, args []string) (any, error)
}

type environment struct {
	circuits *brayns.CircuitExplorer
	graphs   *brayns.GraphExplorer
}

var commands = map[string]command{
	"material":            {"set a material's appearance", runMaterial},
	"circuit":             {"set circuit attributes", runCircuit},
	"morphology":          {"set morphology attributes", runMorphology},
	"transfer-function":   {"set and commit the transfer function", runTransferFunction},
	"load-cache":          {"load a model from the cache", runLoadCache},
	"save-cache":          {"save a model to the cache", runSaveCache},
	"positions":           {"send node positions from an x y z file", runPositions},
	"random-connectivity": {"generate random connectivity", runRandomConnectivity},
	"connectivity":        {"load connectivity from a matrix file", runConnectivity},
	"validate-positions":  {"parse a positions file without contacting the renderer", nil},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one braynsctl invocation and returns the process exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "braynsctl: ", 0)

	global := flag.NewFlagSet("braynsctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "config file (.toml, .yaml, .yml)")
	url := global.String("url", "", "renderer websocket URL")
	timeout := global.Duration("timeout", 0, "default response timeout")
	verbose := global.Bool("v", false, "log request events")
	showMetrics := global.Bool("metrics", false, "print metrics to stderr on exit")
	global.Usage = func() { usage(global) }
	if err := global.Parse(argv); err != nil {
		return 2
	}

	if global.NArg() == 0 {
		usage(global)
		return 2
	}
	name, args := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		logger.Printf("unknown command %q", name)
		usage(global)
		return 2
	}

	if name == "validate-positions" {
		if err := validatePositions(args, stdout); err != nil {
			logger.Print(err)
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := resolveConfig(*configPath, *url, *timeout)
	if err != nil {
		logger.Print(err)
		return 1
	}

	if *verbose {
		observer := capitan.Observe(eventLogger(logger))
		defer observer.Close()
	}

	reg := prometheus.NewRegistry()
	if *showMetrics {
		m, err := metrics.New(reg)
		if err != nil {
			logger.Print(err)
			return 1
		}
		defer m.Close()
	}

	client, err := rockets.Dial(ctx, cfg.Rockets())
	if err != nil {
		logger.Print(err)
		return 1
	}

	opts := cfg.Options()
	env := &environment{
		circuits: brayns.NewCircuitExplorer(client, opts...),
		graphs:   brayns.NewGraphExplorer(client, opts...),
	}

	result, runErr := cmd.run(ctx, env, args)
	_ = client.Close()

	if *showMetrics {
		// Hooks are delivered asynchronously.
		time.Sleep(50 * time.Millisecond)
		if err := writeMetrics(stderr, reg); err != nil {
			logger.Print(err)
		}
	}
	if runErr != nil {
		logger.Printf("%s: %v", name, runErr)
		return 1
	}
	if result != nil {
		if err := printResult(stdout, result); err != nil {
			logger.Print(err)
			return 1
		}
	}
	return 0
}

func resolveConfig(path, url string, timeout time.Duration) (config.Config, error) {
	cfg := config.Defaults()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := config.LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if url != "" {
		cfg.Renderer.URL = url
	}
	if timeout > 0 {
		cfg.Renderer.Timeout = config.Duration{Duration: timeout}
	}
	return cfg, nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: braynsctl [global flags] <command> [command flags]")
	fmt.Fprintln(out, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(out, "\nglobal flags:")
	fs.PrintDefaults()
}

func eventLogger(logger *log.Logger) func(context.Context, *capitan.Event) {
	return func(_ context.Context, e *capitan.Event) {
		method, _ := brayns.MethodKey.From(e)
		id, _ := brayns.RequestIDKey.From(e)
		if msg, ok := brayns.ErrorKey.From(e); ok {
			logger.Printf("%s %s %s: %s", e.Signal(), method, id, msg)
			return
		}
		logger.Printf("%s %s %s", e.Signal(), method, id)
	}
}

func printResult(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	var errs []error
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
