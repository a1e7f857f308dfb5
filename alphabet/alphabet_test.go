package alphabet

import (
	"testing"
)

func TestDNARank(t *testing.T) {
	if n := DNA.NumKmers(1); n != 4 {
		t.Fatalf("NumKmers(1): got %d, expected 4", n)
	}

	ranks := map[string]int{"A": 0, "C": 1, "G": 2, "T": 3, "AA": 0, "AC": 1, "TT": 15}
	for kmer, want := range ranks {
		if r := DNA.Rank(kmer); r != want {
			t.Fatalf("Rank(%q): got %d, expected %d", kmer, r, want)
		}
	}

	if r := DNA.Rank("ANA"); r != -1 {
		t.Fatalf("Rank of invalid k-mer: got %d, expected -1", r)
	}
}

func TestDNASymbols(t *testing.T) {
	for i := 0; i < DNA.Size(); i++ {
		if n := DNA.Index(DNA.Symbol(i)); n != i {
			t.Fatalf("Index(Symbol(%d)): got %d", i, n)
		}
	}

	if n := DNA.Index('x'); n != -1 {
		t.Fatalf("Index of invalid symbol: got %d, expected -1", n)
	}
}

// the successor must visit every rank exactly once
func TestSuccessorVisitsAllRanks(t *testing.T) {
	k := 3
	n := DNA.NumKmers(k)
	seen := make([]bool, n)

	kmer := FirstKmer(DNA, k)
	if string(kmer) != "AAA" {
		t.Fatalf("FirstKmer: got %q", kmer)
	}

	for i := 0; i < n; i++ {
		r := DNA.Rank(string(kmer))
		if r < 0 || r >= n {
			t.Fatalf("rank out of range for %q: %d", kmer, r)
		}

		if seen[r] {
			t.Fatalf("rank %d visited twice at %q", r, kmer)
		}
		seen[r] = true

		ok := NextKmer(DNA, kmer)
		if i < n-1 && !ok {
			t.Fatalf("successor ended early at %q (step %d)", kmer, i)
		}

		if i == n-1 {
			if ok {
				t.Fatalf("successor didn't stop after the last k-mer")
			}

			if string(kmer) != "TTT" {
				t.Fatalf("last k-mer changed by failed advance: %q", kmer)
			}
		}
	}

	for r, v := range seen {
		if !v {
			t.Fatalf("rank %d never visited", r)
		}
	}
}
