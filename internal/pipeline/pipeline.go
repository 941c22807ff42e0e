// Package pipeline orchestrates one conversion: registry lookup,
// quality resolution, converter invocation, mesh validation/assembly,
// and export dispatch. The pipeline is stateless across calls except
// for output-path collision probing against the filesystem.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/meshforge/internal/convert"
	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/export"
	"git.home.luguber.info/inful/meshforge/internal/geometry"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
	"git.home.luguber.info/inful/meshforge/internal/metrics"
)

// Request describes one conversion.
type Request struct {
	InputPath    string
	OutputFormat string

	// OutputPath is optional; empty means "derive from the input name,
	// probing for an unused path".
	OutputPath string

	// Quality names a preset; explicit tolerances below override it.
	Quality           string
	Deflection        float64
	AngularDeflection float64

	// Format-specific export options.
	Binary          *bool // nil means "format default"
	IncludeNormals  *bool
	IncludeMaterial bool
	MaterialName    string

	// Mesh post-processing hooks.
	Decimate    bool
	TargetFaces int
	Smooth      bool
	Iterations  int
}

// Pipeline coordinates converters and exporters for single conversions.
type Pipeline struct {
	registry  *Registry
	outputDir string
	recorder  metrics.Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithRegistry replaces the default format registry.
func WithRegistry(r *Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// New creates a pipeline with the standard converter and exporter set.
// kernel may be nil; B-rep conversions then fail closed with a
// kernel-unavailable error.
func New(kernel geometry.Kernel, outputDir string, options ...Option) *Pipeline {
	p := &Pipeline{
		registry: NewRegistry(
			[]convert.Converter{
				convert.NewSTEPConverter(kernel),
				convert.NewIGESConverter(kernel),
				convert.NewSTLConverter(),
			},
			[]export.Exporter{
				export.NewSTLExporter(),
				export.NewOBJExporter(),
				export.NewGLTFExporter(),
			},
		),
		outputDir: outputDir,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Registry exposes the pipeline's format registry for the formats endpoint.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Convert runs one conversion and returns the output path. Every step
// is a hard failure point; errors propagate to the caller unmodified.
func (p *Pipeline) Convert(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	inputExt := convert.NormalizeExtension(filepath.Ext(req.InputPath))
	outputToken := export.NormalizeFormat(req.OutputFormat)

	outputPath, err := p.convert(ctx, req, inputExt, outputToken)

	d := time.Since(start)
	p.recorder.ObserveConversionDuration(inputExt, outputToken, d)
	if err != nil {
		p.recorder.IncConversionOutcome(metrics.OutcomeFailed)
		slog.Error("Conversion failed",
			logfields.Path(req.InputPath),
			logfields.Format(outputToken),
			logfields.Error(err),
			logfields.DurationMS(float64(d.Milliseconds())))
		return "", err
	}
	p.recorder.IncConversionOutcome(metrics.OutcomeSuccess)
	slog.Info("Conversion completed",
		logfields.Path(outputPath),
		logfields.DurationMS(float64(d.Milliseconds())))
	return outputPath, nil
}

func (p *Pipeline) convert(ctx context.Context, req Request, inputExt, outputToken string) (string, error) {
	if _, err := os.Stat(req.InputPath); err != nil {
		return "", meshErrors.InputNotFound(req.InputPath)
	}

	converter, ok := p.registry.ConverterFor(inputExt)
	if !ok {
		return "", meshErrors.UnsupportedInputFormat(inputExt)
	}
	exporter, ok := p.registry.ExporterFor(outputToken)
	if !ok {
		return "", meshErrors.UnsupportedOutputFormat(outputToken)
	}

	params := ResolveQuality(req.Quality, req.Deflection, req.AngularDeflection)
	slog.Info("Starting conversion",
		logfields.Path(req.InputPath),
		logfields.Format(outputToken),
		slog.Float64("deflection", params.Deflection),
		slog.Float64("angular_deflection", params.AngularDeflection))

	m, err := runStage(p.recorder, "convert", func() (*mesh.MeshData, error) {
		return converter.Read(req.InputPath, params.Deflection, params.AngularDeflection)
	})
	if err != nil {
		return "", err
	}

	if ctx.Err() != nil {
		return "", meshErrors.InternalError("conversion canceled", ctx.Err())
	}

	stageStart := time.Now()
	if err := mesh.Process(m, mesh.ProcessOptions{
		Decimate:    req.Decimate,
		TargetFaces: req.TargetFaces,
		Smooth:      req.Smooth,
		Iterations:  req.Iterations,
	}); err != nil {
		return "", err
	}
	p.recorder.ObserveStageDuration("validate", time.Since(stageStart))

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath, err = p.generateOutputPath(req.InputPath, outputToken)
		if err != nil {
			return "", err
		}
	}

	opts := exportOptions(outputToken, req)

	outPath, err := runStage(p.recorder, "export", func() (string, error) {
		return exporter.Export(m, outputPath, opts)
	})
	if err != nil {
		return "", err
	}

	if info, statErr := os.Stat(outPath); statErr == nil {
		p.recorder.ObserveExportSize(outputToken, info.Size())
	}
	return outPath, nil
}

// ExportPlaceholder writes a metadata-tagged placeholder mesh to the
// output path the request would normally produce. Used by the service
// layer's degraded mode when no geometry kernel is present; it is never
// invoked for content failures.
func (p *Pipeline) ExportPlaceholder(req Request) (string, error) {
	outputToken := export.NormalizeFormat(req.OutputFormat)
	exporter, ok := p.registry.ExporterFor(outputToken)
	if !ok {
		return "", meshErrors.UnsupportedOutputFormat(outputToken)
	}

	params := ResolveQuality(req.Quality, req.Deflection, req.AngularDeflection)
	m := geometry.PlaceholderBox(params.Deflection, params.AngularDeflection)
	m.Metadata.SourceFile = req.InputPath
	mesh.ComputeVertexNormals(m)

	outputPath := req.OutputPath
	if outputPath == "" {
		var err error
		outputPath, err = p.generateOutputPath(req.InputPath, outputToken)
		if err != nil {
			return "", err
		}
	}

	slog.Warn("Exporting placeholder geometry, kernel unavailable",
		logfields.Path(req.InputPath),
		logfields.Format(outputToken))
	return exporter.Export(m, outputPath, exportOptions(outputToken, req))
}

// runStage times fn under the given stage label.
func runStage[T any](r metrics.Recorder, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	r.ObserveStageDuration(stage, time.Since(start))
	return out, err
}

// generateOutputPath derives an output path from the input base name and
// the output token, probing with _1, _2, ... suffixes until an unused
// path is found. Existing files are never overwritten. A stat failure
// other than not-exist (unsearchable or invalid output dir) aborts the
// probe instead of counting upward forever.
func (p *Pipeline) generateOutputPath(inputPath, outputToken string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	ext := fileExtensionFor(outputToken)

	candidate := filepath.Join(p.outputDir, base+"."+ext)
	for counter := 1; ; counter++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", meshErrors.FileSystemError("probe output path", err).
				WithContext("path", candidate)
		}
		candidate = filepath.Join(p.outputDir, fmt.Sprintf("%s_%d.%s", base, counter, ext))
	}
}

// fileExtensionFor maps an output token to its file extension: the STL
// variant tokens all produce .stl files.
func fileExtensionFor(outputToken string) string {
	switch outputToken {
	case "stl", "stl_ascii", "stl_binary":
		return "stl"
	default:
		return outputToken
	}
}

// exportOptions derives format-specific options from the requested
// output token and the caller's overrides.
func exportOptions(outputToken string, req Request) export.Options {
	opts := export.Options{
		IncludeMaterial: req.IncludeMaterial,
		MaterialName:    req.MaterialName,
	}

	switch outputToken {
	case "stl_ascii":
		opts.Binary = false
	case "stl", "stl_binary":
		opts.Binary = true
		if req.Binary != nil {
			opts.Binary = *req.Binary
		}
	case "glb":
		opts.Binary = true
	case "gltf":
		opts.Binary = false
	}

	if outputToken == "obj" {
		opts.IncludeNormals = true
		if req.IncludeNormals != nil {
			opts.IncludeNormals = *req.IncludeNormals
		}
	}
	return opts
}
