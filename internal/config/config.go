// Package config loads engine settings from YAML or CUE files.
//
//	timeout: 500ms
//	parallel: true
//	max_workers: 8
//	trim_temporary_variables: true
//	log_level: info
//
// Every key is optional; missing keys keep their defaults. CUE files are
// checked against an embedded schema before decoding.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/leviathan/internal/engine"
)

//go:embed schema.cue
var schemaSource string

// Config holds the engine settings.
type Config struct {
	// Timeout bounds product evaluation. 0 disables it.
	Timeout time.Duration

	Parallel bool

	// MaxWorkers bounds a parallel product. 0 means GOMAXPROCS.
	MaxWorkers int

	TrimTemporaryVariables bool
	LogLevel               slog.Level
}

// Default returns parallel evaluation with trimming, no timeout and Info
// logging.
func Default() Config {
	return Config{
		Parallel:               true,
		TrimTemporaryVariables: true,
		LogLevel:               slog.LevelInfo,
	}
}

// file is the on-disk form. Pointers tell absent keys from zero values.
type file struct {
	Timeout                string `yaml:"timeout" json:"timeout"`
	Parallel               *bool  `yaml:"parallel" json:"parallel"`
	MaxWorkers             *int   `yaml:"max_workers" json:"max_workers"`
	TrimTemporaryVariables *bool  `yaml:"trim_temporary_variables" json:"trim_temporary_variables"`
	LogLevel               string `yaml:"log_level" json:"log_level"`
}

// Load reads a .yaml, .yml or .cue file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var f *file
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err = parseYAML(data)
	case ".cue":
		f, err = parseCUE(path, data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	cfg, err := f.apply(Default())
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parseYAML(data []byte) (*file, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		// An empty document is a config with every default.
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &f, nil
}

func parseCUE(filename string, data []byte) (*file, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, firstCUEError(err)
	}
	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, firstCUEError(err)
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return nil, firstCUEError(err)
	}
	return &f, nil
}

// firstCUEError reports the first error with its position.
func firstCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		return fmt.Errorf("%s: %s", pos[0], first.Error())
	}
	return first
}

func (f *file) apply(cfg Config) (Config, error) {
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("timeout: %w", err)
		}
		if d < 0 {
			return cfg, fmt.Errorf("timeout: must not be negative, got %s", d)
		}
		cfg.Timeout = d
	}
	if f.Parallel != nil {
		cfg.Parallel = *f.Parallel
	}
	if f.MaxWorkers != nil {
		if *f.MaxWorkers < 0 {
			return cfg, fmt.Errorf("max_workers: must not be negative, got %d", *f.MaxWorkers)
		}
		cfg.MaxWorkers = *f.MaxWorkers
	}
	if f.TrimTemporaryVariables != nil {
		cfg.TrimTemporaryVariables = *f.TrimTemporaryVariables
	}
	if f.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.LogLevel)); err != nil {
			return cfg, fmt.Errorf("log_level: %w", err)
		}
	}
	return cfg, nil
}

// EngineOptions turns the settings into engine options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTimeout(c.Timeout),
		engine.WithParallel(c.Parallel),
		engine.WithMaxWorkers(c.MaxWorkers),
		engine.WithTrimTemporaryVariables(c.TrimTemporaryVariables),
	}
}
