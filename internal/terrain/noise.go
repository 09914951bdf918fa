// Package terrain turns world coordinates into terrain samples and classifies them
// into biomes. Everything here is pure and safe for concurrent use.
package terrain

import (
	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/worldgen/internal/config"
)

// Sample is the (height, temperature, moisture) triple for one coordinate.
// Every component lies in [0, 1].
type Sample struct {
	Height      float64 `json:"height"`
	Temperature float64 `json:"temperature"`
	Moisture    float64 `json:"moisture"`
}

// source is a coherent 2-D noise function returning values in roughly [-1, 1].
type source interface {
	Eval2(x, y float64) float64
}

type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Eval2(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

func newSource(algorithm string, seed int64) source {
	if algorithm == config.NoisePerlin {
		return perlinSource{p: perlin.NewPerlin(2, 2, 3, seed)}
	}
	return opensimplex.New(seed)
}

type axis struct {
	noise  source
	params config.NoiseParams
}

// Field samples the three terrain axes from independently seeded noise sources.
type Field struct {
	height      axis
	temperature axis
	moisture    axis
}

// NewField builds a noise field for the given world.
func NewField(cfg config.WorldConfig) *Field {
	return &Field{
		height:      axis{noise: newSource(cfg.NoiseAlgorithm, cfg.Height.Seed), params: cfg.Height},
		temperature: axis{noise: newSource(cfg.NoiseAlgorithm, cfg.Temperature.Seed), params: cfg.Temperature},
		moisture:    axis{noise: newSource(cfg.NoiseAlgorithm, cfg.Moisture.Seed), params: cfg.Moisture},
	}
}

// Sample returns the terrain at (x, y).
func (f *Field) Sample(x, y int) Sample {
	fx, fy := float64(x), float64(y)
	return Sample{
		Height:      octaveNoise(f.height.noise, fx, fy, f.height.params),
		Temperature: octaveNoise(f.temperature.noise, fx, fy, f.temperature.params),
		Moisture:    octaveNoise(f.moisture.noise, fx, fy, f.moisture.params),
	}
}

// Grid samples a size×size block whose lower corner is (startX, startY).
// The result is x-major: index (lx*size + ly) holds (startX+lx, startY+ly).
func (f *Field) Grid(startX, startY, size int) []Sample {
	if size <= 0 {
		return nil
	}
	out := make([]Sample, 0, size*size)
	for lx := 0; lx < size; lx++ {
		for ly := 0; ly < size; ly++ {
			out = append(out, f.Sample(startX+lx, startY+ly))
		}
	}
	return out
}

// octaveNoise layers several frequencies of the source and normalizes the sum into [0, 1].
func octaveNoise(noise source, x, y float64, p config.NoiseParams) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := p.Scale
	maxVal := 0.0

	for i := 0; i < p.Octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}

	if maxVal == 0 {
		return 0.5
	}
	return clamp01((total/maxVal + 1) / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	// NaN compares false above; fall back to neutral.
	if v != v {
		return 0.5
	}
	return v
}
