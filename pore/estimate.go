package pore

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"squiggle/alphabet"
)

// EventSet accumulates per-k-mer signal observations (event level and
// noise spread) from which a replacement parameter set can be estimated
// and fed to Update.
type EventSet struct {
	k      int
	ab     alphabet.Alphabet
	levels [][]float64
	sds    [][]float64
}

func NewEventSet(k int, ab alphabet.Alphabet) *EventSet {
	es := new(EventSet)
	es.k = k
	es.ab = ab
	es.levels = make([][]float64, ab.NumKmers(k))
	es.sds = make([][]float64, ab.NumKmers(k))

	return es
}

// Add records one observed event for the given k-mer.
func (es *EventSet) Add(kmer string, level, sd float64) error {
	if len(kmer) != es.k {
		return fmt.Errorf("%w: k-mer %q length %d, expected %d", Eformat, kmer, len(kmer), es.k)
	}

	rank := es.ab.Rank(kmer)
	if rank < 0 {
		return fmt.Errorf("%w: invalid k-mer %q", Eformat, kmer)
	}

	es.levels[rank] = append(es.levels[rank], level)
	es.sds[rank] = append(es.sds[rank], sd)

	return nil
}

// Count returns the number of events recorded for the given k-mer rank.
func (es *EventSet) Count(rank int) int {
	return len(es.levels[rank])
}

// States estimates a raw parameter set from the accumulated events by
// moment matching. Every k-mer rank must have at least minEvents
// observations and non-degenerate spread, otherwise the set is too
// sparse to replace a model table.
func (es *EventSet) States(minEvents int) ([]StateParams, error) {
	if minEvents < 2 {
		minEvents = 2
	}

	states := make([]StateParams, len(es.levels))
	for i := range es.levels {
		if len(es.levels[i]) < minEvents {
			return nil, fmt.Errorf("%w: rank %d has %d events, need %d", Ecomplete, i, len(es.levels[i]), minEvents)
		}

		var s StateParams
		s.LevelMean, s.LevelStdv = stat.MeanStdDev(es.levels[i], nil)
		s.SdMean, s.SdStdv = stat.MeanStdDev(es.sds[i], nil)

		if err := checkState(s); err != nil {
			return nil, fmt.Errorf("rank %d: %w", i, err)
		}

		states[i] = s
	}

	return states, nil
}

// MeanLevel returns the average uncalibrated level mean across all
// k-mers. The difference between two models' mean levels is the baseline
// gap a shift offset compensates for when one model is substituted for
// the other.
func MeanLevel(states []StateParams) float64 {
	lv := make([]float64, len(states))
	for i := range states {
		lv[i] = states[i].LevelMean
	}

	return floats.Sum(lv) / float64(len(lv))
}
