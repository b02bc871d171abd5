package sat

// DefaultRandomSeed is the seed used when none (or a non-positive one) is
// configured.
const DefaultRandomSeed = 91648253

// drand returns a pseudo-random number in [0, 1) and advances the seed. This
// is the multiplicative congruential generator used by MiniSat and Glucose so
// that a floating point seed has the same meaning as in those solvers.
func drand(seed *float64) float64 {
	*seed *= 1389796
	q := int(*seed / 2147483647)
	*seed -= float64(q) * 2147483647
	return *seed / 2147483647
}

// irand returns a pseudo-random integer in [0, size).
func irand(seed *float64, size int) int {
	return int(drand(seed) * float64(size))
}
