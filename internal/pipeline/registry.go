package pipeline

import (
	"sort"

	"git.home.luguber.info/inful/meshforge/internal/convert"
	"git.home.luguber.info/inful/meshforge/internal/export"
)

// Registry maps input extensions to converters and output tokens to
// exporters. Populated at pipeline construction; read-only afterward.
type Registry struct {
	converters map[string]convert.Converter
	exporters  map[string]export.Exporter
}

// NewRegistry builds a registry from the given implementations, keyed
// by each converter's extensions and each exporter's format tokens.
func NewRegistry(converters []convert.Converter, exporters []export.Exporter) *Registry {
	r := &Registry{
		converters: make(map[string]convert.Converter),
		exporters:  make(map[string]export.Exporter),
	}
	for _, c := range converters {
		for _, ext := range c.Extensions() {
			r.converters[convert.NormalizeExtension(ext)] = c
		}
	}
	for _, e := range exporters {
		for _, f := range e.Formats() {
			r.exporters[export.NormalizeFormat(f)] = e
		}
	}
	return r
}

// ConverterFor returns the converter registered for the extension.
// Matching is case-insensitive with any leading dot stripped.
func (r *Registry) ConverterFor(extension string) (convert.Converter, bool) {
	c, ok := r.converters[convert.NormalizeExtension(extension)]
	return c, ok
}

// ExporterFor returns the exporter registered for the output token.
func (r *Registry) ExporterFor(token string) (export.Exporter, bool) {
	e, ok := r.exporters[export.NormalizeFormat(token)]
	return e, ok
}

// InputFormats lists registered input extensions, sorted.
func (r *Registry) InputFormats() []string {
	out := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// OutputFormats lists registered output tokens, sorted.
func (r *Registry) OutputFormats() []string {
	out := make([]string, 0, len(r.exporters))
	for f := range r.exporters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
