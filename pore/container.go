package pore

import (
	"fmt"
	"strings"

	"squiggle/alphabet"
)

// One row of a model table stored in a signal container.
type ModelEntry struct {
	Kmer      string
	LevelMean float64
	LevelStdv float64
	SdMean    float64
	SdStdv    float64
}

// ContainerReader is the capability the container construction path
// needs from a raw-signal container: the stored per-strand model table,
// its scaling coefficients and its origin path.
type ContainerReader interface {
	Model(strand int) ([]ModelEntry, error)
	ModelParams(strand int) (ScalingParams, error)
	ModelFile(strand int) (string, error)
}

// FromContainer builds a model from the table embedded in a signal
// container for the given strand. The container carries the read's own
// calibration, so the model is baked immediately and no shift offset is
// layered. knownPrefix, if non-empty, is stripped from the recorded
// origin path when deriving the model name, so models that differ only
// by installation location display identically.
func FromContainer(rd ContainerReader, strand int, ab alphabet.Alphabet, knownPrefix string) (m *Model, err error) {
	entries, err := rd.Model(strand)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("strand %d: %w: empty model table", strand, Eformat)
	}

	m = newModel(len(entries[0].Kmer), ab)
	if len(entries) != len(m.states) {
		return nil, fmt.Errorf("strand %d: %w: %d entries, expected %d",
			strand, Ecomplete, len(entries), len(m.states))
	}

	seen := make([]bool, len(m.states))
	for _, e := range entries {
		if len(e.Kmer) != m.k {
			return nil, fmt.Errorf("strand %d: %w: k-mer %q length %d, expected %d",
				strand, Eformat, e.Kmer, len(e.Kmer), m.k)
		}

		rank := ab.Rank(e.Kmer)
		if rank < 0 {
			return nil, fmt.Errorf("strand %d: %w: invalid k-mer %q", strand, Eformat, e.Kmer)
		}

		if seen[rank] {
			return nil, fmt.Errorf("strand %d: %w: duplicate k-mer %q", strand, Ecomplete, e.Kmer)
		}

		seen[rank] = true
		s := StateParams{LevelMean: e.LevelMean, LevelStdv: e.LevelStdv, SdMean: e.SdMean, SdStdv: e.SdStdv}
		if err = checkState(s); err != nil {
			return nil, fmt.Errorf("strand %d: k-mer %q: %w", strand, e.Kmer, err)
		}

		m.states[rank] = s
	}

	m.sp, err = rd.ModelParams(strand)
	if err != nil {
		return nil, err
	}

	// the container is the read's native calibration
	m.soffst = 0
	m.Bake()

	mfile, err := rd.ModelFile(strand)
	if err != nil {
		return nil, err
	}

	m.fname = mfile
	m.name = flattenName(mfile, knownPrefix)

	return m, nil
}

// strips the known installation prefix and turns the remaining path
// into a flat, filesystem-safe identifier
func flattenName(path, knownPrefix string) string {
	name := path
	if knownPrefix != "" {
		if i := strings.Index(name, knownPrefix); i >= 0 {
			name = name[i+len(knownPrefix):]
		}
	}

	return strings.ReplaceAll(name, "/", "_")
}
