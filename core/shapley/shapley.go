// Package shapley attributes the selected fleet's value to its member
// vessels by Monte Carlo permutation sampling. The characteristic function
// is the fleet cost when the subset is feasible and a fixed penalty when it
// is not, so a vessel's value measures how much of the infeasibility penalty
// its presence removes net of its own cost.
package shapley

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/logger"
	"github.com/marovik/fleetopt/core/model"
)

// Sampling defaults.
const (
	DefaultSamples = 1000
	DefaultSeed    = 42
)

// Category labels by share of the leading attribution.
const (
	CategoryEssential = "essential"
	CategoryUseful    = "useful"
	CategoryMarginal  = "marginal"
)

// stderrShare is the convergence criterion: every standard error must stay
// within this share of the leading attribution.
const stderrShare = 0.05

// Options shapes the permutation sampling.
type Options struct {
	Samples int   // permutations to draw, DefaultSamples when <= 0
	Seed    int64 // base seed, DefaultSeed when 0
	Workers int   // concurrent samplers, NumCPU when <= 0

	// Progress, when set, is invoked after each drawn permutation with the
	// number of finished permutations and the sample count. It must be safe
	// for concurrent use.
	Progress func(done, total int)
}

// Attribution is one vessel's share of the fleet value.
type Attribution struct {
	VesselID string
	Value    float64
	StdErr   float64
	Rank     int
	Category string
}

// Report holds the sampled attribution with its diagnostics.
type Report struct {
	Attributions []Attribution // descending by value
	Samples      int
	Seed         int64
	Penalty      float64
	FleetCost    float64
	Converged    bool
	Runtime      time.Duration
}

// Estimator runs permutation-sampling attributions.
type Estimator struct {
	opts Options
	log  logger.Logger
}

// New returns an Estimator with unset options replaced by defaults.
func New(opts Options, log logger.Logger) *Estimator {
	if opts.Samples <= 0 {
		opts.Samples = DefaultSamples
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Estimator{opts: opts, log: log}
}

// Estimate samples vessel permutations of the fleet and averages each
// vessel's marginal value. Permutation p always draws from the generator
// seeded with Seed+p, so results do not depend on the worker count.
func (e *Estimator) Estimate(ctx context.Context, fleet model.Fleet, vessels []model.Vessel, cfg model.ConstraintConfig) (Report, error) {
	start := time.Now()
	if fleet.Size == 0 {
		return Report{}, fmt.Errorf("%w: cannot attribute an empty fleet", costmodel.ErrInvalidConfiguration)
	}
	ev := costmodel.NewEvaluator(vessels, cfg)
	for _, id := range fleet.VesselIDs {
		if _, ok := ev.Vessel(id); !ok {
			return Report{}, fmt.Errorf("%w: fleet vessel %q not in catalog", costmodel.ErrInvalidConfiguration, id)
		}
	}

	penalty := 2 * costmodel.TotalCost(vessels)
	ids := fleet.VesselIDs
	n := len(ids)
	samples := e.opts.Samples
	workers := e.opts.Workers
	if workers > samples {
		workers = samples
	}
	e.log.Infof("attributing fleet of %d vessels over %d permutations", n, samples)

	type partial struct {
		sum   []float64
		sumSq []float64
	}
	parts := make([]partial, workers)
	base := samples / workers
	extra := samples % workers
	var finished atomic.Int32
	var wg sync.WaitGroup
	next := 0
	for w := 0; w < workers; w++ {
		count := base
		if w < extra {
			count++
		}
		first := next
		next += count
		wg.Add(1)
		go func(w, first, count int) {
			defer wg.Done()
			sum := make([]float64, n)
			sumSq := make([]float64, n)
			for p := first; p < first+count; p++ {
				if ctx.Err() != nil {
					break
				}
				r := rand.New(rand.NewSource(e.opts.Seed + int64(p)))
				st := ev.NewState()
				val := penalty // the empty subset is never feasible
				for _, k := range r.Perm(n) {
					st.Add(ids[k])
					after := penalty
					if st.Feasible() {
						after = st.Cost()
					}
					m := val - after
					sum[k] += m
					sumSq[k] += m * m
					val = after
				}
				if e.opts.Progress != nil {
					e.opts.Progress(int(finished.Add(1)), samples)
				}
			}
			parts[w] = partial{sum: sum, sumSq: sumSq}
		}(w, first, count)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	sum := make([]float64, n)
	sumSq := make([]float64, n)
	for _, p := range parts {
		for i := range sum {
			sum[i] += p.sum[i]
			sumSq[i] += p.sumSq[i]
		}
	}

	atts := make([]Attribution, n)
	maxVal := math.Inf(-1)
	for i, id := range ids {
		mean := sum[i] / float64(samples)
		var se float64
		if samples > 1 {
			variance := (sumSq[i] - float64(samples)*mean*mean) / float64(samples-1)
			if variance > 0 {
				se = math.Sqrt(variance / float64(samples))
			}
		}
		atts[i] = Attribution{VesselID: id, Value: mean, StdErr: se}
		if mean > maxVal {
			maxVal = mean
		}
	}

	converged := true
	scale := math.Abs(maxVal)
	if scale == 0 {
		scale = 1
	}
	for i := range atts {
		atts[i].Category = categorize(atts[i].Value, maxVal)
		if atts[i].StdErr > stderrShare*scale {
			converged = false
		}
	}
	if !converged {
		e.log.Warnf("attribution not converged after %d permutations, raise the sample count", samples)
	}

	sort.Slice(atts, func(i, j int) bool {
		if atts[i].Value == atts[j].Value {
			return atts[i].VesselID < atts[j].VesselID
		}
		return atts[i].Value > atts[j].Value
	})
	for i := range atts {
		atts[i].Rank = i + 1
	}

	rep := Report{
		Attributions: atts,
		Samples:      samples,
		Seed:         e.opts.Seed,
		Penalty:      penalty,
		FleetCost:    fleet.TotalCost,
		Converged:    converged,
		Runtime:      time.Since(start),
	}
	e.log.Infof("attribution done: leader %s (%.2f), converged=%t, %s",
		atts[0].VesselID, atts[0].Value, converged, rep.Runtime)
	return rep, nil
}

func categorize(v, max float64) string {
	if max <= 0 {
		return CategoryMarginal
	}
	switch share := v / max; {
	case share >= 0.8:
		return CategoryEssential
	case share >= 0.2:
		return CategoryUseful
	default:
		return CategoryMarginal
	}
}
