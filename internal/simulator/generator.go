package simulator

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Generator feeds a State with a bounded random walk, one reading per tick.
type Generator struct {
	state *State
	rnd   *rand.Rand

	temperature float64
	humidity    float64
	lux         float64
}

// NewGenerator creates a generator starting from typical indoor values.
func NewGenerator(state *State, seed uint64) *Generator {
	return &Generator{
		state:       state,
		rnd:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		temperature: 26,
		humidity:    55,
		lux:         300,
	}
}

// Step advances the walk and ingests one reading.
func (g *Generator) Step() SensorRecord {
	g.temperature = walk(g.rnd, g.temperature, 0.6, 18, 34)
	g.humidity = walk(g.rnd, g.humidity, 1.5, 20, 90)
	g.lux = walk(g.rnd, g.lux, 25, 0, 1200)
	return g.state.Ingest(g.temperature, g.humidity, g.lux)
}

// Run ingests a reading every interval until ctx is done.
func (g *Generator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.Step()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Step()
		}
	}
}

func walk(rnd *rand.Rand, v, step, lo, hi float64) float64 {
	v += (rnd.Float64()*2 - 1) * step
	return math.Max(lo, math.Min(hi, v))
}
