package alphabet

// The standard 4-symbol nucleotide alphabet. Ranks are computed by
// packing each symbol into 2 bits, so for DNA the rank order coincides
// with the lexicographic order.
var DNA Alphabet = dna{}

const dnaSymbols = "ACGT"

type dna struct{}

func (dna) Size() int {
	return len(dnaSymbols)
}

func (dna) Symbol(i int) byte {
	return dnaSymbols[i]
}

func (dna) Index(c byte) int {
	switch c {
	default:
		return -1
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
}

func (dna) NumKmers(k int) int {
	return 1 << (2 * k)
}

func (d dna) Rank(kmer string) int {
	var v int

	for i := 0; i < len(kmer); i++ {
		nt := d.Index(kmer[i])
		if nt < 0 {
			return -1
		}

		v = (v << 2) | nt
	}

	return v
}
