// Package robustness perturbs the selected fleet with a Metropolis random
// walk over the catalog and measures how often each vessel stays in the
// working set. Vessels that survive nearly every iteration are structural;
// vessels that come and go are interchangeable with catalog alternatives.
package robustness

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/logger"
	"github.com/marovik/fleetopt/core/model"
)

// Sampling defaults.
const (
	DefaultIterations = 10_000
	DefaultSeed       = 42
	DefaultBeta       = 1e-4
	DefaultChains     = 1
	DefaultTol        = 0.05
)

// progressStride is how many iterations pass between progress callbacks.
const progressStride = 1000

// Category labels by appearance frequency.
const (
	CategoryEssential = "essential"
	CategoryStable    = "stable"
	CategoryVariable  = "variable"
)

// Options shapes the random walk.
type Options struct {
	Iterations int     // steps per chain, DefaultIterations when <= 0
	Chains     int     // independent chains pooled together, DefaultChains when <= 0
	Seed       int64   // chain i runs on Seed+i, DefaultSeed when 0
	Beta       float64 // cost sensitivity of the acceptance rule, DefaultBeta when 0
	Tol        float64 // split-half agreement required for convergence, DefaultTol when 0

	// Progress, when set, is invoked every progressStride iterations with
	// the chain index, iterations done in that chain, and the chain length.
	Progress func(chain, done, total int)
}

// VesselFrequency is one vessel's appearance share across all iterations.
type VesselFrequency struct {
	VesselID  string
	Frequency float64
	Category  string
}

// Report summarizes the walk.
type Report struct {
	Frequencies    []VesselFrequency // descending by frequency
	Iterations     int
	Chains         int
	Seed           int64
	Beta           float64
	AcceptanceRate float64
	Converged      bool
	Runtime        time.Duration
}

// Sampler runs Metropolis walks over fleet compositions.
type Sampler struct {
	opts Options
	log  logger.Logger
}

// New returns a Sampler with unset options replaced by defaults.
func New(opts Options, log logger.Logger) *Sampler {
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.Chains <= 0 {
		opts.Chains = DefaultChains
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Beta == 0 {
		opts.Beta = DefaultBeta
	}
	if opts.Tol == 0 {
		opts.Tol = DefaultTol
	}
	return &Sampler{opts: opts, log: log}
}

type chainResult struct {
	counts   [2]map[string]int // appearance counts per split half
	accepted int
}

// Sample walks each chain from the given fleet and pools the appearance
// counts. A proposal flips one uniformly drawn catalog vessel; infeasible
// proposals are rejected outright, cost increases survive with probability
// exp(-Beta*delta).
func (s *Sampler) Sample(ctx context.Context, fleet model.Fleet, vessels []model.Vessel, cfg model.ConstraintConfig) (Report, error) {
	start := time.Now()
	if fleet.Size == 0 {
		return Report{}, fmt.Errorf("%w: cannot perturb an empty fleet", costmodel.ErrInvalidConfiguration)
	}
	ev := costmodel.NewEvaluator(vessels, cfg)
	for _, id := range fleet.VesselIDs {
		if _, ok := ev.Vessel(id); !ok {
			return Report{}, fmt.Errorf("%w: fleet vessel %q not in catalog", costmodel.ErrInvalidConfiguration, id)
		}
	}
	ids := make([]string, len(vessels))
	for i, v := range vessels {
		ids[i] = v.ID
	}
	sort.Strings(ids)

	s.log.Infof("perturbing fleet of %d vessels: %d chains of %d iterations",
		fleet.Size, s.opts.Chains, s.opts.Iterations)

	results := make([]chainResult, s.opts.Chains)
	var wg sync.WaitGroup
	for c := 0; c < s.opts.Chains; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			results[c] = s.runChain(ctx, ev, ids, fleet.VesselIDs, c)
		}(c)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	total := make(map[string]int)
	firstHalf := make(map[string]int)
	secondHalf := make(map[string]int)
	accepted := 0
	for _, cr := range results {
		accepted += cr.accepted
		for id, n := range cr.counts[0] {
			total[id] += n
			firstHalf[id] += n
		}
		for id, n := range cr.counts[1] {
			total[id] += n
			secondHalf[id] += n
		}
	}

	iters := s.opts.Iterations * s.opts.Chains
	freqs := make([]VesselFrequency, 0, len(total))
	for id, n := range total {
		f := float64(n) / float64(iters)
		freqs = append(freqs, VesselFrequency{VesselID: id, Frequency: f, Category: categorize(f)})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Frequency == freqs[j].Frequency {
			return freqs[i].VesselID < freqs[j].VesselID
		}
		return freqs[i].Frequency > freqs[j].Frequency
	})

	half := s.opts.Iterations / 2
	converged := half > 0
	if converged {
		n1 := float64(half * s.opts.Chains)
		n2 := float64((s.opts.Iterations - half) * s.opts.Chains)
		for id := range total {
			f1 := float64(firstHalf[id]) / n1
			f2 := float64(secondHalf[id]) / n2
			if math.Abs(f1-f2) > s.opts.Tol {
				converged = false
				break
			}
		}
	}
	if !converged {
		s.log.Warnf("appearance frequencies drifted between run halves, raise the iteration count")
	}

	rep := Report{
		Frequencies:    freqs,
		Iterations:     s.opts.Iterations,
		Chains:         s.opts.Chains,
		Seed:           s.opts.Seed,
		Beta:           s.opts.Beta,
		AcceptanceRate: float64(accepted) / float64(iters),
		Converged:      converged,
		Runtime:        time.Since(start),
	}
	s.log.Infof("perturbation done: %d vessels seen, acceptance %.3f, converged=%t, %s",
		len(freqs), rep.AcceptanceRate, converged, rep.Runtime)
	return rep, nil
}

func (s *Sampler) runChain(ctx context.Context, ev *costmodel.Evaluator, ids, seed []string, chain int) chainResult {
	r := rand.New(rand.NewSource(s.opts.Seed + int64(chain)))
	st := ev.StateOf(seed)
	half := s.opts.Iterations / 2
	cr := chainResult{counts: [2]map[string]int{make(map[string]int), make(map[string]int)}}
	for it := 0; it < s.opts.Iterations; it++ {
		if ctx.Err() != nil {
			break
		}
		id := ids[r.Intn(len(ids))]
		if st.Has(id) {
			st.Remove(id)
			if st.Feasible() {
				cr.accepted++
			} else {
				st.Add(id)
			}
		} else {
			before := st.Cost()
			st.Add(id)
			if !st.Feasible() {
				st.Remove(id)
			} else if delta := st.Cost() - before; delta <= 0 || r.Float64() < math.Exp(-s.opts.Beta*delta) {
				cr.accepted++
			} else {
				st.Remove(id)
			}
		}
		counts := cr.counts[0]
		if it >= half {
			counts = cr.counts[1]
		}
		st.Each(func(member string) { counts[member]++ })
		if s.opts.Progress != nil && (it+1)%progressStride == 0 {
			s.opts.Progress(chain, it+1, s.opts.Iterations)
		}
	}
	return cr
}

func categorize(f float64) string {
	switch {
	case f >= 0.9:
		return CategoryEssential
	case f >= 0.5:
		return CategoryStable
	default:
		return CategoryVariable
	}
}
