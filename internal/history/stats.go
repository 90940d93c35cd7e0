package history

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

const (
	bootstrapIterations = 2000
	confidenceLevel     = 0.95

	// fixed so the same runs always print the same interval
	bootstrapSeed = 0x68697265
)

// Summary describes a series of runs, typically one candidate's.
type Summary struct {
	Runs  int     `json:"runs"`
	Mean  float64 `json:"mean"`
	Best  int     `json:"best"`
	Worst int     `json:"worst"`

	// Lower and Upper bound the mean at 95% confidence (bootstrap
	// percentile method). They equal Mean when there are fewer than two runs.
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`

	// Gain is the normalized gain from the oldest to the newest run: the
	// share of the headroom left after the first run that was closed since.
	Gain float64 `json:"gain"`
}

// Summarize computes a Summary over runs given newest first, as List
// returns them.
func Summarize(runs []Run) Summary {
	if len(runs) == 0 {
		return Summary{}
	}

	scores := make([]float64, len(runs))
	s := Summary{Runs: len(runs), Best: runs[0].TotalScore, Worst: runs[0].TotalScore}
	for i, r := range runs {
		scores[i] = float64(r.TotalScore)
		s.Best = max(s.Best, r.TotalScore)
		s.Worst = min(s.Worst, r.TotalScore)
	}
	s.Mean = mean(scores)
	s.Lower, s.Upper = bootstrapCI(scores)

	oldest, newest := runs[len(runs)-1], runs[0]
	if oldest.MaxScore > 0 && newest.MaxScore > 0 {
		s.Gain = normalizedGain(
			float64(oldest.TotalScore)/float64(oldest.MaxScore),
			float64(newest.TotalScore)/float64(newest.MaxScore),
		)
	}
	return s
}

func (s Summary) String() string {
	if s.Runs == 0 {
		return "no runs"
	}
	return fmt.Sprintf("%d runs, mean %.1f (95%% CI %.1f-%.1f), best %d, worst %d, normalized gain %.2f",
		s.Runs, s.Mean, s.Lower, s.Upper, s.Best, s.Worst, s.Gain)
}

// bootstrapCI resamples scores with replacement and returns the percentile
// interval of the resampled means.
func bootstrapCI(scores []float64) (lower, upper float64) {
	n := len(scores)
	if n < 2 {
		m := mean(scores)
		return m, m
	}

	rng := rand.New(rand.NewPCG(bootstrapSeed, uint64(n)))
	means := make([]float64, bootstrapIterations)
	sample := make([]float64, n)
	for i := range means {
		for j := range sample {
			sample[j] = scores[rng.IntN(n)]
		}
		means[i] = mean(sample)
	}
	slices.Sort(means)

	alpha := 1 - confidenceLevel
	lo := int(math.Floor(alpha / 2 * bootstrapIterations))
	hi := min(int(math.Floor((1-alpha/2)*bootstrapIterations)), bootstrapIterations-1)
	return means[lo], means[hi]
}

// normalizedGain is Hake's g = (post - pre) / (1 - pre) over fractions of
// the maximum score. A first run already at the ceiling has no headroom and
// yields 0.
func normalizedGain(pre, post float64) float64 {
	if pre >= 1 {
		return 0
	}
	if math.Abs(post-pre) < 1e-12 {
		return 0
	}
	return (min(post, 1) - pre) / (1 - pre)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
