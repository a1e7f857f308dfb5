package sigfile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"squiggle/alphabet"
	"squiggle/pore"
)

var _ pore.ContainerReader = (*File)(nil)

func testEntries(k int) []pore.ModelEntry {
	n := alphabet.DNA.NumKmers(k)
	entries := make([]pore.ModelEntry, n)

	kmer := alphabet.FirstKmer(alphabet.DNA, k)
	for i := 0; i < n; i++ {
		entries[i] = pore.ModelEntry{
			Kmer:      string(kmer),
			LevelMean: 90 + 0.5*float64(i),
			LevelStdv: 1.5,
			SdMean:    4 + 0.1*float64(i),
			SdStdv:    1.1,
		}
		alphabet.NextKmer(alphabet.DNA, kmer)
	}

	return entries
}

func testFile(t *testing.T, strands int) (*File, string) {
	t.Helper()

	f := New()
	for i := 0; i < strands; i++ {
		sp := pore.ScalingParams{Drift: 0.01, Scale: 1 + 0.1*float64(i), ScaleSd: 1, Shift: float64(i), Var: 1, VarSd: 1}
		if err := f.AddStrand("/opt/chimaera/model/r9.model", sp, testEntries(2)); err != nil {
			t.Fatal(err)
		}
	}

	fname := filepath.Join(t.TempDir(), "read.sqmd")
	if err := f.Write(fname); err != nil {
		t.Fatal(err)
	}

	return f, fname
}

func sameStrand(t *testing.T, want, got *File, strand int) {
	t.Helper()

	we, _ := want.Model(strand)
	ge, err := got.Model(strand)
	if err != nil {
		t.Fatal(err)
	}

	if len(we) != len(ge) {
		t.Fatalf("strand %d: got %d entries, expected %d", strand, len(ge), len(we))
	}

	for i := range we {
		if we[i] != ge[i] {
			t.Fatalf("strand %d: entry %d: got %+v, expected %+v", strand, i, ge[i], we[i])
		}
	}

	wp, _ := want.ModelParams(strand)
	gp, err := got.ModelParams(strand)
	if err != nil {
		t.Fatal(err)
	}
	if wp != gp {
		t.Fatalf("strand %d: params: got %+v, expected %+v", strand, gp, wp)
	}

	wf, _ := want.ModelFile(strand)
	gf, err := got.ModelFile(strand)
	if err != nil {
		t.Fatal(err)
	}
	if wf != gf {
		t.Fatalf("strand %d: model file: got %q, expected %q", strand, gf, wf)
	}
}

func TestRoundTrip(t *testing.T) {
	f, fname := testFile(t, 2)

	g, err := Open(fname)
	if err != nil {
		t.Fatal(err)
	}

	if g.Strands() != 2 {
		t.Fatalf("strands: got %d, expected 2", g.Strands())
	}

	sameStrand(t, f, g, pore.StrandTemplate)
	sameStrand(t, f, g, pore.StrandComplement)

	if _, err = g.Model(2); !errors.Is(err, Estrand) {
		t.Fatalf("out of range strand: got %v", err)
	}
}

// byte offsets inside the container, for targeted damage
const (
	hdrSize    = 8 + 4 // magic+version, strand count
	strandHdr  = 4 + 4 // section length, shard size
	shardsOffs = hdrSize + strandHdr
)

func shardSize(t *testing.T, buf []byte) int {
	t.Helper()

	if len(buf) < shardsOffs {
		t.Fatalf("container too short: %d bytes", len(buf))
	}

	v, _ := gint32(buf[hdrSize+4:])
	return int(v)
}

func corrupt(t *testing.T, fname string, shards ...int) {
	t.Helper()

	buf, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}

	shardsz := shardSize(t, buf)
	for _, sh := range shards {
		buf[shardsOffs+sh*shardsz+1] ^= 0xff
	}

	if err = os.WriteFile(fname, buf, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRecovery(t *testing.T) {
	f, fname := testFile(t, 1)

	// damage as many shards as there is parity
	corrupt(t, fname, 0, 5)

	g, err := Open(fname)
	if err != nil {
		t.Fatal(err)
	}

	sameStrand(t, f, g, pore.StrandTemplate)
}

func TestUnrecoverable(t *testing.T) {
	_, fname := testFile(t, 1)

	corrupt(t, fname, 0, 3, 7)

	if _, err := Open(fname); !errors.Is(err, Ecorrupt) {
		t.Fatalf("got %v, expected corruption error", err)
	}
}

func TestBadMagic(t *testing.T) {
	_, fname := testFile(t, 1)

	buf, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	buf[7] ^= 0xff
	os.WriteFile(fname, buf, 0644)

	if _, err = Open(fname); err == nil {
		t.Fatalf("bad magic not detected")
	}
}

// a container read through the pore constructor must match a model
// built directly from the same table
func TestFromContainer(t *testing.T) {
	_, fname := testFile(t, 1)

	f, err := Open(fname)
	if err != nil {
		t.Fatal(err)
	}

	m, err := pore.FromContainer(f, pore.StrandTemplate, alphabet.DNA, "/opt/chimaera/model/")
	if err != nil {
		t.Fatal(err)
	}

	if !m.Scaled() {
		t.Fatalf("container model not baked")
	}

	if m.Name() != "r9.model" {
		t.Fatalf("name: got %q", m.Name())
	}

	entries := testEntries(2)
	sp, _ := f.ModelParams(pore.StrandTemplate)
	for _, e := range entries {
		r := alphabet.DNA.Rank(e.Kmer)
		want := e.LevelMean*sp.Scale + sp.Shift
		if got := m.ScaledAt(r).LevelMean; math.Abs(got-want) > 1e-12 {
			t.Fatalf("%s: scaled level_mean: got %v, expected %v", e.Kmer, got, want)
		}
	}
}
