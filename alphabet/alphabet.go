// The alphabet package defines the k-mer alphabet abstraction used by the
// emission model: converting k-mer strings to dense integer ranks and
// enumerating k-mers in lexicographic order.
package alphabet

// Generic interface of a k-mer alphabet.
type Alphabet interface {
	// Number of symbols in the alphabet
	Size() int

	// Returns the i-th symbol, in lexicographic order
	Symbol(i int) byte

	// Converts a symbol to its index.
	// Returns -1 if the symbol doesn't belong to the alphabet
	Index(c byte) int

	// Number of distinct k-mers of length k
	NumKmers(k int) int

	// Converts a k-mer string to its dense rank in
	// [0, NumKmers(len(kmer))). The mapping is a bijection.
	// Returns -1 if the k-mer contains invalid symbols
	Rank(kmer string) int
}

// Returns the lexicographically first k-mer of length k, i.e. k copies
// of the first symbol.
func FirstKmer(a Alphabet, k int) []byte {
	kmer := make([]byte, k)
	for i := range kmer {
		kmer[i] = a.Symbol(0)
	}

	return kmer
}

// Advances the k-mer to its lexicographic successor, in place.
// Returns false if the k-mer is already the last one (and doesn't
// change it).
func NextKmer(a Alphabet, kmer []byte) bool {
	last := a.Symbol(a.Size() - 1)

	for i := len(kmer) - 1; i >= 0; i-- {
		if kmer[i] != last {
			kmer[i] = a.Symbol(a.Index(kmer[i]) + 1)
			return true
		}

		kmer[i] = a.Symbol(0)
	}

	// wrapped around, restore the last k-mer
	for i := range kmer {
		kmer[i] = last
	}

	return false
}
