package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/meshforge/internal/config"
	"git.home.luguber.info/inful/meshforge/internal/pipeline"
)

// runConvert performs a single conversion from the command line,
// writing next to the current directory unless -o is given.
func runConvert(cfg *config.Config) error {
	outputDir := filepath.Dir(CLI.Convert.Input)
	if CLI.Convert.Output != "" {
		outputDir = filepath.Dir(CLI.Convert.Output)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	pl := pipeline.New(nil, outputDir)
	outputFile, err := pl.Convert(context.Background(), pipeline.Request{
		InputPath:         CLI.Convert.Input,
		OutputFormat:      CLI.Convert.Format,
		OutputPath:        CLI.Convert.Output,
		Quality:           CLI.Convert.Quality,
		Deflection:        CLI.Convert.Deflection,
		AngularDeflection: CLI.Convert.AngularDeflection,
	})
	if err != nil {
		if cfg.Geometry.AllowPlaceholder {
			slog.Warn("Conversion failed and placeholder mode is enabled for the service; the CLI never emits placeholders")
		}
		return err
	}
	fmt.Println(outputFile)
	return nil
}

// runFormats prints the registry contents.
func runFormats() {
	registry := pipeline.New(nil, ".").Registry()

	fmt.Println("Input formats:")
	for _, token := range registry.InputFormats() {
		fmt.Printf("  %s\n", token)
	}
	fmt.Println("Output formats:")
	for _, token := range registry.OutputFormats() {
		fmt.Printf("  %s\n", token)
	}

	fmt.Println("Quality presets:")
	for _, name := range pipeline.QualityPresets() {
		params := pipeline.ResolveQuality(name, 0, 0)
		fmt.Printf("  %-6s deflection=%g angular=%g\n", name, params.Deflection, params.AngularDeflection)
	}
}
