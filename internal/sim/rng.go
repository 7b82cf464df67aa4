package sim

import "math/rand"

// randFloat draws from the provided source, falling back to the global
// generator when no source was injected.
func randFloat(rng *rand.Rand) float32 {
	if rng != nil {
		return rng.Float32()
	}
	return rand.Float32()
}

func randRange(rng *rand.Rand, min, max float32) float32 {
	if max <= min {
		return min
	}
	return min + randFloat(rng)*(max-min)
}
