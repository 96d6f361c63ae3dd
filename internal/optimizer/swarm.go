package optimizer

import (
	"context"
	"math"
	"math/rand"

	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/mathutil"
)

// SwarmConfig configures the particle swarm.
type SwarmConfig struct {
	Particles     int
	MaxIterations int
	Inertia       float64
	Cognitive     float64
	Social        float64
	Oracle        OracleOptions
}

func (c SwarmConfig) withDefaults() SwarmConfig {
	if c.Particles <= 0 {
		c.Particles = constants.DefaultParticles
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = constants.DefaultSwarmIterations
	}
	if c.Inertia <= 0 {
		c.Inertia = constants.DefaultInertia
	}
	if c.Cognitive <= 0 {
		c.Cognitive = constants.DefaultCognitive
	}
	if c.Social <= 0 {
		c.Social = constants.DefaultSocial
	}
	c.Oracle = c.Oracle.withDefaults()
	return c
}

type particle struct {
	position    []int
	velocity    []float64
	best        []int
	bestFitness float64
}

// swarm holds the mutable state of one particle swarm run.
type swarm struct {
	cfg        SwarmConfig
	oracle     *Oracle
	weights    []float64
	rng        *rand.Rand
	particles  []*particle
	best       []int
	bestFit    float64
	scratch    []float64
	iterations int
	trace      []float64
}

func (s *swarm) fitness(position []int) float64 {
	for i, idx := range position {
		s.scratch[i] = s.weights[idx]
	}
	return s.oracle.Penalty(s.scratch)
}

func (s *swarm) arrangement(position []int) []float64 {
	out := make([]float64, len(position))
	for i, idx := range position {
		out[i] = s.weights[idx]
	}
	return out
}

func (s *swarm) init() {
	n := len(s.weights)
	s.best = identity(n)
	s.bestFit = s.fitness(s.best)

	s.particles = make([]*particle, s.cfg.Particles)
	for i := range s.particles {
		pt := &particle{
			position: s.rng.Perm(n),
			velocity: make([]float64, n),
		}
		for d := range pt.velocity {
			pt.velocity[d] = (s.rng.Float64() - 0.5) * 2
		}
		pt.best = append([]int(nil), pt.position...)
		pt.bestFitness = s.fitness(pt.position)
		if pt.bestFitness < s.bestFit {
			s.bestFit = pt.bestFitness
			copy(s.best, pt.position)
		}
		s.particles[i] = pt
	}
}

func (s *swarm) step() {
	n := len(s.weights)
	for _, pt := range s.particles {
		for d := 0; d < n; d++ {
			r1, r2 := s.rng.Float64(), s.rng.Float64()
			v := s.cfg.Inertia*pt.velocity[d] +
				s.cfg.Cognitive*r1*float64(pt.best[d]-pt.position[d]) +
				s.cfg.Social*r2*float64(s.best[d]-pt.position[d])
			pt.velocity[d] = mathutil.Clamp(v, -1, 1)
		}
		if n > 1 {
			for d := 0; d < n; d++ {
				if s.rng.Float64() >= math.Abs(pt.velocity[d]) {
					continue
				}
				other := s.rng.Intn(n - 1)
				if other >= d {
					other++
				}
				pt.position[d], pt.position[other] = pt.position[other], pt.position[d]
			}
		}
		repairPermutation(pt.position)

		fit := s.fitness(pt.position)
		if fit < pt.bestFitness {
			pt.bestFitness = fit
			copy(pt.best, pt.position)
		}
		if fit < s.bestFit {
			s.bestFit = fit
			copy(s.best, pt.position)
		}
	}
	s.iterations++
	s.trace = append(s.trace, s.bestFit)
}

func (s *swarm) converged() bool {
	it := len(s.trace) - 1
	if it <= constants.ConvergenceWindow {
		return false
	}
	return math.Abs(s.trace[it]-s.trace[it-constants.ConvergenceWindow]) < constants.ConvergenceTolerance
}

func (s *swarm) result(stopped StopReason) Result {
	res := Result{
		Method:           MethodSwarm,
		Iterations:       s.iterations,
		ConvergenceTrace: s.trace,
		Stopped:          stopped,
	}
	res = finish(res, s.oracle, s.arrangement(s.best))
	res.Success = s.bestFit < s.cfg.Oracle.IntermediatePenalty
	return res
}

// RunParticleSwarm searches permutations with a discrete particle swarm.
// Particles move by swapping dimensions with probability |velocity|. The
// input arrangement seeds the global best, so the result never scores worse
// than the input.
func RunParticleSwarm(ctx context.Context, p Problem, cfg SwarmConfig, rng *rand.Rand) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if len(p.Weights) == 0 {
		return emptyResult(MethodSwarm), nil
	}
	cfg = cfg.withDefaults()
	oracle, err := NewOracle(p, cfg.Oracle)
	if err != nil {
		return Result{}, err
	}

	s := &swarm{
		cfg:     cfg,
		oracle:  oracle,
		weights: p.Weights,
		rng:     ensureRand(rng),
		scratch: make([]float64, len(p.Weights)),
	}
	s.init()

	for s.iterations < cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return s.result(StopCanceled), err
		}
		s.step()
		if s.converged() {
			return s.result(StopConverged), nil
		}
	}
	return s.result(StopBudget), nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// repairPermutation makes position a permutation of 0..n-1 again. Values
// that are out of range or already seen are replaced, in encounter order,
// by the lowest unused index.
func repairPermutation(position []int) {
	n := len(position)
	used := make([]bool, n)
	var broken []int
	for i, v := range position {
		if v < 0 || v >= n || used[v] {
			broken = append(broken, i)
			continue
		}
		used[v] = true
	}
	if len(broken) == 0 {
		return
	}
	next := 0
	for _, i := range broken {
		for used[next] {
			next++
		}
		position[i] = next
		used[next] = true
	}
}
