// Command mcporter is a thin smoke-harness binary: it loads the configured
// servers and exercises the Runtime end to end. It is not a full CLI (no
// tool-call syntax, no pretty-printing); it wires the façade so the module's
// go.mod dependencies are exercised by something runnable instead of only by
// package-level tests.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	flags "github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/viant/mcporter/runtime"
)

type options struct {
	Config  string `short:"c" long:"config" description:"path to the primary mcporter config file"`
	Root    string `short:"r" long:"root" description:"project root used for root-relative config/import lookups"`
	Server  string `short:"s" long:"server" description:"if set, list tools for this server only"`
	Harness string `long:"harness" description:"path to a YAML harness config supplying defaults for the flags above"`
}

// harnessConfig is a development-convenience file, distinct from the
// primary JSON mcporter config: it only ever supplies defaults for flags a
// developer would otherwise retype on every invocation of this harness.
type harnessConfig struct {
	Config string `yaml:"config"`
	Root   string `yaml:"root"`
	Server string `yaml:"server"`
}

func applyHarnessDefaults(opts *options) error {
	if opts.Harness == "" {
		return nil
	}
	data, err := os.ReadFile(opts.Harness)
	if err != nil {
		return fmt.Errorf("read harness config %q: %w", opts.Harness, err)
	}
	var h harnessConfig
	if err := yaml.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("parse harness config %q: %w", opts.Harness, err)
	}
	if opts.Config == "" {
		opts.Config = h.Config
	}
	if opts.Root == "" {
		opts.Root = h.Root
	}
	if opts.Server == "" {
		opts.Server = h.Server
	}
	return nil
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
	if err := applyHarnessDefaults(&opts); err != nil {
		log.Fatalf("mcporter: %v", err)
	}

	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Options{ConfigPath: opts.Config, Root: opts.Root})
	if err != nil {
		log.Fatalf("mcporter: %v", err)
	}
	defer rt.CloseAll()

	names := rt.ListServers()
	if opts.Server != "" {
		names = []string{opts.Server}
	}

	for _, name := range names {
		result, err := rt.ListTools(ctx, name, nil, runtime.ConnectOptions{})
		if err != nil {
			fmt.Printf("%s: error: %v\n", name, err)
			continue
		}
		fmt.Printf("%s: %d tool(s)\n", name, len(result.Tools))
		for _, tool := range result.Tools {
			fmt.Printf("  - %s\n", tool.Name)
		}
	}
}
