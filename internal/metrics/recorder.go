package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"digitaldna/internal/genome"
)

const namespace = "digitaldna"

// Recorder collects engine counters. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	replications prometheus.Counter
	crossovers   prometheus.Counter
	mutations    *prometheus.CounterVec
	adjustments  *prometheus.CounterVec
	entropy      prometheus.Histogram
}

// NewRecorder registers the engine collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		replications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replications_total",
			Help:      "Offspring produced by asexual replication.",
		}),
		crossovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crossovers_total",
			Help:      "Offspring produced by crossover.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "point_mutations_total",
			Help:      "Nucleotide mutations applied during replication, by kind.",
		}, []string{"kind"}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_adjustments_total",
			Help:      "Adaptive mutation-rate steps, by direction.",
		}, []string{"direction"}),
		entropy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "offspring_entropy_bits",
			Help:      "Shannon entropy of produced offspring.",
			Buckets:   prometheus.LinearBuckets(0, 0.25, 9),
		}),
	}
	for _, c := range []prometheus.Collector{r.replications, r.crossovers, r.mutations, r.adjustments, r.entropy} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveReplication records an offspring and the point mutations it
// picked up during the replication that produced it.
func (r *Recorder) ObserveReplication(offspring *genome.Sequence) {
	if r == nil {
		return
	}
	r.replications.Inc()
	for kind, n := range offspring.ReplicationMutations().Types {
		r.mutations.WithLabelValues(string(kind)).Add(float64(n))
	}
	r.entropy.Observe(offspring.Entropy())
}

func (r *Recorder) ObserveCrossover(offspring *genome.Sequence) {
	if r == nil {
		return
	}
	r.crossovers.Inc()
	r.entropy.Observe(offspring.Entropy())
}

// ObserveRateAdjustment records whether an adaptive step raised or
// lowered the rates.
func (r *Recorder) ObserveRateAdjustment(improved bool) {
	if r == nil {
		return
	}
	direction := "down"
	if improved {
		direction = "up"
	}
	r.adjustments.WithLabelValues(direction).Inc()
}
