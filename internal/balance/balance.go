// Package balance implements the label balancer: a seeded stochastic filter
// that drops classification records per label to correct class imbalance.
package balance

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

// DefaultProbability keeps every record whose label has no correction.
const DefaultProbability = 1.0

// ErrNotInitialized is returned when records arrive before Initialize.
var ErrNotInitialized = errors.New("balancer not initialized")

// Options configures a Balancer.
type Options struct {
	// CorrectionFile is the label → probability file; empty means none.
	CorrectionFile string
	// Seed fixes the random sequence; nil picks a time based seed.
	Seed *int64
	// DefaultProbability applies to labels missing from the table; nil means 1.0.
	DefaultProbability *float64
}

// Balancer keeps a classification record with the probability configured
// for its label. Exactly one random number is drawn per evaluated record,
// before the label is inspected, so the decisions only depend on the seed
// and the sequence of records.
type Balancer struct {
	opts   Options
	logger *slog.Logger

	ready       bool
	seed        int64
	rng         *rand.Rand
	table       CorrectionTable
	defaultProb float64

	kept    int
	dropped int
}

// New creates an uninitialised balancer.
func New(opts Options, logger *slog.Logger) *Balancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Balancer{opts: opts, logger: logger}
}

// Initialize seeds the random source and loads the correction table. A
// correction file that cannot be read is fatal.
func (b *Balancer) Initialize() error {
	b.defaultProb = DefaultProbability
	if b.opts.DefaultProbability != nil {
		b.defaultProb = *b.opts.DefaultProbability
	}
	if math.IsNaN(b.defaultProb) {
		return fmt.Errorf("%w: default probability is NaN", ErrInvalidProbability)
	}
	if b.defaultProb < 0 || b.defaultProb > 1 {
		b.logger.Warn("default probability outside [0,1]", "probability", b.defaultProb)
	}

	if b.opts.Seed != nil {
		b.seed = *b.opts.Seed
	} else {
		b.seed = time.Now().UnixNano()
	}
	b.rng = rand.New(rand.NewPCG(uint64(b.seed), 0)) //nolint:gosec // G404: sampling, not security
	b.logger.Debug("balancer seeded", "seed", b.seed)

	b.table = CorrectionTable{}
	if b.opts.CorrectionFile == "" {
		b.logger.Warn("no label correction file provided, every label uses the default probability",
			"default_probability", b.defaultProb)
	} else {
		b.logger.Info("loading correction file", "path", b.opts.CorrectionFile)
		table, err := LoadCorrectionTable(b.opts.CorrectionFile, b.logger)
		if err != nil {
			return err
		}
		b.table = table
		for _, label := range table.Labels() {
			b.logger.Info("correction", "label", label, "probability", table[label])
		}
	}

	b.kept, b.dropped = 0, 0
	b.ready = true
	return nil
}

// Seed returns the seed in use. It is only meaningful after Initialize.
func (b *Balancer) Seed() int64 { return b.seed }

// Probability returns the keep probability of label.
func (b *Balancer) Probability(label string) float64 {
	if p, ok := b.table[label]; ok {
		return p
	}
	return b.defaultProb
}

// Process returns img when it is kept and nothing when it is dropped.
// Unlabeled and non-classification records are always dropped.
func (b *Balancer) Process(img *annotation.Image) ([]*annotation.Image, error) {
	if !b.ready {
		return nil, ErrNotInitialized
	}
	r := b.rng.Float64()

	keep := false
	switch img.Kind {
	case annotation.KindClassification:
		if img.Classification == nil || !img.Classification.HasLabel {
			b.logger.Warn("skipping, due to no label", "image", img.Name)
			break
		}
		keep = r < b.Probability(img.Classification.Label)
	case annotation.KindDetection, annotation.KindSegmentation:
		b.logger.Warn("skipping due to wrong data type", "image", img.Name, "kind", img.Kind.String())
	default:
		b.logger.Warn("skipping due to unknown data type", "image", img.Name, "kind", img.Kind.String())
	}

	if !keep {
		b.dropped++
		return nil, nil
	}
	b.kept++
	return []*annotation.Image{img}, nil
}

// Finalize logs how many records were kept.
func (b *Balancer) Finalize() error {
	b.logger.Info("balancing finished", "kept", b.kept, "dropped", b.dropped, "seed", b.seed)
	return nil
}
