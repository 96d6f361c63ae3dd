package optimizer

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

// defaultSeed replaces a zero seed so unseeded runs stay reproducible.
const defaultSeed int64 = 1

// NewRand returns a per-call random source. A zero seed uses a fixed default
// and a negative seed draws from the clock.
func NewRand(seed int64) *rand.Rand {
	switch {
	case seed == 0:
		seed = defaultSeed
	case seed < 0:
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// deriveSeed mixes a parent seed and a stream id with a SplitMix64 finalizer.
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// deriveRand creates an independent stream from base. base is advanced once.
func deriveRand(base *rand.Rand, stream uint64) *rand.Rand {
	parent := defaultSeed
	if base != nil {
		parent = base.Int63()
	}
	return rand.New(rand.NewSource(deriveSeed(parent, stream)))
}

func ensureRand(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return NewRand(0)
	}
	return rng
}

// shuffle performs an in-place Fisher-Yates shuffle.
func shuffle(values []float64, rng *rand.Rand) {
	for i := len(values) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}

// randomSwaps exchanges count uniformly chosen pairs. A pair may repeat an
// index, in which case the swap is a no-op.
func randomSwaps(values []float64, count int, rng *rand.Rand) {
	n := len(values)
	if n < 2 {
		return
	}
	for k := 0; k < count; k++ {
		i, j := rng.Intn(n), rng.Intn(n)
		values[i], values[j] = values[j], values[i]
	}
}

func sortDescending(values []float64) {
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
}

// RandomWeights generates n test-fill weights uniformly in [min, max),
// truncated to whole pounds. Zero bounds select the default fill range.
func RandomWeights(n int, min, max float64, rng *rand.Rand) []float64 {
	if min == 0 && max == 0 {
		min, max = constants.TestFillMinWeight, constants.TestFillMaxWeight
	}
	rng = ensureRand(rng)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Floor(rng.Float64()*(max-min)) + min
	}
	return out
}
