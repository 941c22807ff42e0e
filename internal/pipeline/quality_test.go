package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveQualityPresets(t *testing.T) {
	tests := []struct {
		preset      string
		wantDefl    float64
		wantAngular float64
	}{
		{"low", 1.0, 1.0},
		{"medium", 0.1, 0.5},
		{"high", 0.01, 0.1},
		{"ultra", 0.001, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			got := ResolveQuality(tt.preset, 0, 0)
			assert.Equal(t, tt.wantDefl, got.Deflection)
			assert.Equal(t, tt.wantAngular, got.AngularDeflection)
		})
	}
}

func TestResolveQualityUnknownPresetFallsBackToMedium(t *testing.T) {
	got := ResolveQuality("bogus", 0, 0)
	assert.Equal(t, QualityParams{Deflection: 0.1, AngularDeflection: 0.5}, got)
}

func TestResolveQualityBothExplicitWinOutright(t *testing.T) {
	// Explicit pair ignores the preset entirely, even a valid one.
	got := ResolveQuality("ultra", 0.05, 0.2)
	assert.Equal(t, QualityParams{Deflection: 0.05, AngularDeflection: 0.2}, got)

	got = ResolveQuality("bogus", 0.05, 0.2)
	assert.Equal(t, QualityParams{Deflection: 0.05, AngularDeflection: 0.2}, got)
}

func TestResolveQualitySingleExplicitOverridesOneField(t *testing.T) {
	got := ResolveQuality("high", 0.5, 0)
	assert.Equal(t, QualityParams{Deflection: 0.5, AngularDeflection: 0.1}, got)

	got = ResolveQuality("high", 0, 0.3)
	assert.Equal(t, QualityParams{Deflection: 0.01, AngularDeflection: 0.3}, got)
}

func TestResolveQualityZeroMeansUnset(t *testing.T) {
	// A zero tolerance cannot be honored (it would demand infinite
	// tessellation), so zero falls back to the preset.
	got := ResolveQuality("high", 0, 0)
	assert.Equal(t, QualityParams{Deflection: 0.01, AngularDeflection: 0.1}, got)

	got = ResolveQuality("high", -1, 0.2)
	assert.Equal(t, 0.01, got.Deflection)
	assert.Equal(t, 0.2, got.AngularDeflection)
}

func TestQualityPresetsMonotonic(t *testing.T) {
	names := QualityPresets()
	prev := QualityParams{Deflection: 2, AngularDeflection: 2}
	for _, name := range names {
		cur := ResolveQuality(name, 0, 0)
		assert.Less(t, cur.Deflection, prev.Deflection, name)
		assert.Less(t, cur.AngularDeflection, prev.AngularDeflection, name)
		prev = cur
	}
}
