package pore

// Reading and writing the plain-text model format:
//
//	#model_name <name>
//	#shift_offset <float>
//	kmer	level_mean	level_stdv	sd_mean	sd_stdv
//	AAAAAA	95.2	2.1	4.9	1.2
//	...
//
// Rows may appear in any order; each row is stored at its k-mer rank, so
// the table is complete exactly when every rank was written once.

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"squiggle/alphabet"
)

// FromFile reads a model from a plain-text model file. The k-mer length
// is taken from the first data row; the calibration coefficients default
// to the identity transform and the model is left unbaked.
func FromFile(fname string, ab alphabet.Alphabet) (m *Model, err error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var name string
	var soffst float64
	var seen []bool
	ninserted := 0

	sc := bufio.NewScanner(f)
	for lno := 1; sc.Scan(); lno++ {
		l := sc.Text()

		if strings.HasPrefix(l, "#") {
			fields := strings.Fields(l[1:])
			if len(fields) == 0 {
				continue
			}

			switch fields[0] {
			case "model_name":
				if len(fields) < 2 {
					return nil, fmt.Errorf("%s: line %d: %w: model_name header missing value", fname, lno, Eformat)
				}

				name = fields[1]

			case "shift_offset":
				if len(fields) < 2 {
					return nil, fmt.Errorf("%s: line %d: %w: shift_offset header missing value", fname, lno, Eformat)
				}

				soffst, err = strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s: line %d: %w: bad shift_offset: %v", fname, lno, Eformat, err)
				}

				log.Printf("%s: found shift offset of %.2f", fname, soffst)
			}

			continue
		}

		// skip the column header
		if strings.HasPrefix(l, "kmer") {
			continue
		}

		if strings.TrimSpace(l) == "" {
			continue
		}

		fields := strings.Fields(l)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%s: line %d: %w: expected 5 fields, got %d", fname, lno, Eformat, len(fields))
		}

		kmer := fields[0]
		var s StateParams
		for i, p := range []*float64{&s.LevelMean, &s.LevelStdv, &s.SdMean, &s.SdStdv} {
			*p, err = strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d: %w: %v", fname, lno, Eformat, err)
			}
		}

		if err = checkState(s); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", fname, lno, err)
		}

		if m == nil {
			m = newModel(len(kmer), ab)
			seen = make([]bool, len(m.states))
		}

		if len(kmer) != m.k {
			return nil, fmt.Errorf("%s: line %d: %w: k-mer %q length %d, expected %d",
				fname, lno, Eformat, kmer, len(kmer), m.k)
		}

		rank := ab.Rank(kmer)
		if rank < 0 {
			return nil, fmt.Errorf("%s: line %d: %w: invalid k-mer %q", fname, lno, Eformat, kmer)
		}

		if seen[rank] {
			return nil, fmt.Errorf("%s: line %d: %w: duplicate k-mer %q", fname, lno, Ecomplete, kmer)
		}

		seen[rank] = true
		m.states[rank] = s
		ninserted++
	}

	if err = sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", fname, err)
	}

	if m == nil {
		return nil, fmt.Errorf("%s: %w: no k-mer rows", fname, Eformat)
	}

	if ninserted != len(m.states) {
		return nil, fmt.Errorf("%s: %w: %d k-mers, expected %d", fname, Ecomplete, ninserted, len(m.states))
	}

	m.name = name
	m.soffst = soffst
	m.fname = fname

	return m, nil
}

// Write serializes the raw (uncalibrated) parameters to a plain-text
// model file, one row per k-mer in lexicographic order. The calibration
// coefficients and calibrated parameters are never persisted. If name is
// empty, the model's own name is written.
func (m *Model) Write(fname string, ab alphabet.Alphabet, name string) (err error) {
	if name == "" {
		name = m.name
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); err == nil {
			err = e
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "#model_name\t%s\n", name)
	fmt.Fprintf(w, "#shift_offset\t%v\n", m.soffst)

	kmer := alphabet.FirstKmer(ab, m.k)
	for i := 0; i < len(m.states); i++ {
		s := &m.states[ab.Rank(string(kmer))]
		fmt.Fprintf(w, "%s\t%v\t%v\t%v\t%v\n", kmer, s.LevelMean, s.LevelStdv, s.SdMean, s.SdStdv)
		alphabet.NextKmer(ab, kmer)
	}

	return w.Flush()
}
