package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/prop/internal/config"
	"github.com/vango-dev/prop/internal/errors"
	"github.com/vango-dev/prop/pkg/propset"
	"github.com/vango-dev/prop/pkg/reactor"
)

// loadConfig reads path, or propctl.json in the working directory when
// path is empty. Without either, defaults are used.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if config.Exists(".") {
		return config.Load(".")
	}
	return config.New(), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// reactorOptions translates the reactor section of cfg.
func reactorOptions(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) []reactor.Option {
	opts := []reactor.Option{
		reactor.WithName(cfg.Reactor.Name),
		reactor.WithLogger(logger),
		reactor.WithJobTracing(cfg.Reactor.TraceJobs),
	}
	if reg != nil {
		opts = append(opts, reactor.WithRegisterer(reg))
	}
	if cfg.Reactor.LockThread {
		opts = append(opts, reactor.WithLockedThread())
	}
	if cfg.Reactor.RecoverPanics {
		// The reactor logs the panic itself.
		opts = append(opts, reactor.WithPanicHandler(func(any) {}))
	}
	return opts
}

// propFlag is a parsed --prop name:type=value flag.
type propFlag struct {
	Name  string
	Type  string
	Value string
}

func parsePropFlag(s string) (propFlag, error) {
	decl, value, ok := strings.Cut(s, "=")
	if !ok {
		return propFlag{}, errors.New("E140").WithDetailf("%q has no '='", s)
	}
	name, typ, ok := strings.Cut(decl, ":")
	if !ok {
		return propFlag{}, errors.New("E140").WithDetailf("%q has no ':type'", s)
	}
	name = strings.TrimSpace(name)
	typ = strings.TrimSpace(typ)
	if name == "" || typ == "" {
		return propFlag{}, errors.New("E140").WithDetailf("%q", s)
	}
	return propFlag{Name: name, Type: typ, Value: value}, nil
}

// buildCollection defines the configured properties, then the flag
// properties. A flag replaces a configured property of the same name.
func buildCollection(cfg *config.Config, flags []string) (*propset.Collection, error) {
	props := propset.New()
	for _, p := range cfg.Properties {
		if err := propset.DefineAs(props, p.Name, p.Type, p.Value); err != nil {
			props.Clear()
			return nil, err
		}
	}

	for _, raw := range flags {
		f, err := parsePropFlag(raw)
		if err != nil {
			props.Clear()
			return nil, err
		}
		if props.Has(f.Name) {
			warn("--prop %s replaces the configured property", f.Name)
			props.Remove(f.Name)
		}
		if err := propset.DefineAs(props, f.Name, f.Type, f.Value); err != nil {
			props.Clear()
			return nil, err
		}
	}
	return props, nil
}
