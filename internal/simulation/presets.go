package simulation

import (
	"math"
	"math/rand/v2"
)

// Disc scatters n particles of equal mass uniformly over a disc around the
// origin and gives each the circular velocity for the mass enclosed inside
// its radius. The same seed yields the same disc.
func Disc(n int, radius, totalMass, g float64, seed uint64) []Particle {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	m := totalMass / float64(n)
	out := make([]Particle, n)
	for i := range out {
		// sqrt keeps the density uniform over the area
		r := radius * math.Sqrt(rng.Float64())
		phi := 2 * math.Pi * rng.Float64()
		x, y := r*math.Cos(phi), r*math.Sin(phi)

		var vx, vy float64
		if r > 0 {
			enclosed := totalMass * (r * r) / (radius * radius)
			v := math.Sqrt(g * enclosed / r)
			vx, vy = -v*math.Sin(phi), v*math.Cos(phi)
		}
		out[i] = Particle{X: x, Y: y, VX: vx, VY: vy, M: m}
	}
	return out
}
