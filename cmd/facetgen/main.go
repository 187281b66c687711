// facetgen generates the static metadata provider package for a set of
// facet view definitions.
//
// The tool reads .facetgen.yml (or the file named by -config), loads
// the JSON view definitions it points at and writes the provider
// package into the configured target directory:
//
//	facetgen                   generate once
//	facetgen -watch            generate, then regenerate on changes
//	facetgen init              write a starter configuration file
//	facetgen describe          print the loaded views and their fields
//
// View definition files are produced with load.MarshalView, typically
// by a small program in the project that marshals every view type:
//
//	data, err := load.MarshalView(AccountView{})
//	...
//	os.WriteFile("views/account_view.json", data, 0o644)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/syssam/facet/compiler/gen"
	"github.com/syssam/facet/compiler/load"
)

var (
	configPath = flag.String("config", defaultConfigPath, "path to the facetgen configuration file")
	watchMode  = flag.Bool("watch", false, "regenerate when view definition files change")
)

func main() {
	flag.Parse()

	switch flag.Arg(0) {
	case "":
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		if err := generate(cfg); err != nil {
			fatal(err)
		}
		fmt.Printf("generated %s\n", cfg.Target)
		if *watchMode {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if err := watchLoop(ctx, cfg); err != nil {
				fatal(err)
			}
		}
	case "init":
		if err := initConfig(*configPath); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", *configPath)
	case "describe":
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		g, err := loadGraph(cfg)
		if err != nil {
			fatal(err)
		}
		describe(os.Stdout, g)
	default:
		fatal(fmt.Errorf("unknown command %q", flag.Arg(0)))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "facetgen: %v\n", err)
	os.Exit(1)
}

// loadGraph reads all configured view definitions and builds the
// codegen graph for them.
func loadGraph(cfg *Config) (*gen.Graph, error) {
	files, err := cfg.viewFiles()
	if err != nil {
		return nil, err
	}
	projections := make([]*load.Projection, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read view definition: %w", err)
		}
		p, err := load.UnmarshalProjection(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		projections = append(projections, p)
	}
	opts := []gen.Option{gen.WithTarget(cfg.Target)}
	if cfg.Package != "" {
		opts = append(opts, gen.WithPackage(cfg.Package))
	}
	if cfg.Header != "" {
		opts = append(opts, gen.WithHeader(cfg.Header))
	}
	if len(cfg.Features) > 0 {
		opts = append(opts, gen.WithFeatureNames(cfg.Features...))
	}
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return gen.NewGraph(c, projections...)
}

// generate runs one full codegen pass for the configuration.
func generate(cfg *Config) error {
	g, err := loadGraph(cfg)
	if err != nil {
		return err
	}
	return gen.Generate(g)
}

// initConfig writes a starter configuration file.
func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return saveConfig(path, &Config{
		Views:  StringList{filepath.Join("views", "*.json")},
		Target: "facetview",
	})
}
