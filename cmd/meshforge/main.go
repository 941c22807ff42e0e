package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/meshforge/internal/config"
	"git.home.luguber.info/inful/meshforge/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Start the conversion service"`

	Convert struct {
		Input             string  `arg:"" help:"Input CAD or mesh file"`
		Format            string  `short:"f" help:"Output format token" default:"stl"`
		Output            string  `short:"o" help:"Explicit output path (default: derived from input name)"`
		Quality           string  `short:"q" help:"Quality preset: low, medium, high, ultra" default:"medium"`
		Deflection        float64 `help:"Explicit chordal deflection, overrides the preset"`
		AngularDeflection float64 `help:"Explicit angular deflection, overrides the preset"`
	} `cmd:"" help:"Convert a single file"`

	Formats struct{} `cmd:"" help:"List supported input and output formats"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "serve":
		cfg := loadConfig()
		if !CLI.Verbose {
			applyLogLevel(cfg.Logging.Level)
		}
		if err := runServe(cfg); err != nil {
			slog.Error("Service failed", "error", err)
			os.Exit(1)
		}
	case "convert <input>":
		cfg := loadConfig()
		if err := runConvert(cfg); err != nil {
			slog.Error("Conversion failed", "error", err)
			os.Exit(1)
		}
	case "formats":
		runFormats()
	case "version":
		fmt.Printf("%s %s (commit %s, built %s)\n",
			version.Name, version.Version, version.GitCommit, version.BuildTime)
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func applyLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
