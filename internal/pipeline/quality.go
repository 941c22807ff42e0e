package pipeline

import "log/slog"

// QualityParams are the concrete tessellation tolerances handed to a
// converter.
type QualityParams struct {
	Deflection        float64
	AngularDeflection float64
}

// Built-in presets, monotonically increasing precision from low to ultra.
var qualityPresets = map[string]QualityParams{
	"low":    {Deflection: 1.0, AngularDeflection: 1.0},
	"medium": {Deflection: 0.1, AngularDeflection: 0.5},
	"high":   {Deflection: 0.01, AngularDeflection: 0.1},
	"ultra":  {Deflection: 0.001, AngularDeflection: 0.05},
}

// DefaultQuality is the preset used when the requested name is unknown.
const DefaultQuality = "medium"

// ResolveQuality turns a preset name and optional explicit tolerances
// into concrete parameters. When both explicit values are set they win
// outright and the preset is ignored; a single explicit value overrides
// only its own field. A zero or negative explicit value means "not
// provided": zero deflection would demand infinite tessellation, so it
// cannot be a legitimate tolerance. Unknown preset names fall back to
// medium.
func ResolveQuality(preset string, deflection, angularDeflection float64) QualityParams {
	if deflection > 0 && angularDeflection > 0 {
		return QualityParams{Deflection: deflection, AngularDeflection: angularDeflection}
	}

	params, ok := qualityPresets[preset]
	if !ok {
		if preset != "" {
			slog.Warn("Unknown quality preset, using medium", slog.String("preset", preset))
		}
		params = qualityPresets[DefaultQuality]
	}

	if deflection > 0 {
		params.Deflection = deflection
	}
	if angularDeflection > 0 {
		params.AngularDeflection = angularDeflection
	}
	return params
}

// QualityPresets returns the preset names in increasing precision order.
func QualityPresets() []string {
	return []string{"low", "medium", "high", "ultra"}
}
