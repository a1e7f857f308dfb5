// The sigfile package reads and writes the signal container used to
// carry a read's embedded per-strand model tables and their calibration
// coefficients. Each strand section is stored as Reed-Solomon coded
// shards with per-shard checksums, so a container damaged on disk can
// still be read as long as enough shards survive.
package sigfile

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc64"
	"os"

	"github.com/klauspost/reedsolomon"

	"squiggle/pore"
)

const (
	magic   = 'S'<<56 | 'Q'<<48 | 'M'<<40 | 'D'<<32
	version = 1

	dataShards   = 8
	parityShards = 2
	totalShards  = dataShards + parityShards
)

var Estrand = errors.New("no such strand")
var Ecorrupt = errors.New("container corrupt")

var crctbl = crc64.MakeTable(crc64.ECMA)

type strand struct {
	mfile   string // origin path of the model
	sp      pore.ScalingParams
	k       int
	entries []pore.ModelEntry
}

// A signal container holding one model table per strand.
type File struct {
	fname   string
	strands []*strand
}

func newEncoder() reedsolomon.Encoder {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		panic("reedsolomon error")
	}

	return enc
}

func New() *File {
	return new(File)
}

func (f *File) Strands() int {
	return len(f.strands)
}

// AddStrand appends a strand section with the given origin model path,
// scaling coefficients and model table. All k-mers in the table must
// have the same length.
func (f *File) AddStrand(mfile string, sp pore.ScalingParams, entries []pore.ModelEntry) error {
	if len(entries) == 0 {
		return errors.New("empty model table")
	}

	k := len(entries[0].Kmer)
	for _, e := range entries {
		if len(e.Kmer) != k {
			return fmt.Errorf("k-mer %q length %d, expected %d", e.Kmer, len(e.Kmer), k)
		}
	}

	s := new(strand)
	s.mfile = mfile
	s.sp = sp
	s.k = k
	s.entries = entries
	f.strands = append(f.strands, s)

	return nil
}

// Model returns the stored model table for the strand.
func (f *File) Model(strand int) ([]pore.ModelEntry, error) {
	if strand < 0 || strand >= len(f.strands) {
		return nil, fmt.Errorf("%w: %d", Estrand, strand)
	}

	return f.strands[strand].entries, nil
}

// ModelParams returns the stored scaling coefficients for the strand.
func (f *File) ModelParams(strand int) (pore.ScalingParams, error) {
	if strand < 0 || strand >= len(f.strands) {
		return pore.ScalingParams{}, fmt.Errorf("%w: %d", Estrand, strand)
	}

	return f.strands[strand].sp, nil
}

// ModelFile returns the recorded origin path of the strand's model.
func (f *File) ModelFile(strand int) (string, error) {
	if strand < 0 || strand >= len(f.strands) {
		return "", fmt.Errorf("%w: %d", Estrand, strand)
	}

	return f.strands[strand].mfile, nil
}

// Write serializes the container. Every strand section is split into
// dataShards data and parityShards parity shards, each followed by its
// crc64, so Open can reconstruct sections with damaged shards.
func (f *File) Write(fname string) error {
	enc := newEncoder()

	buf := pint64(magic|version, nil)
	buf = pint32(uint32(len(f.strands)), buf)

	for _, s := range f.strands {
		payload := s.pack()

		shards, err := enc.Split(payload)
		if err != nil {
			return err
		}

		shardsz := len(shards[0])
		full := make([][]byte, totalShards)
		copy(full, shards)
		for i := dataShards; i < totalShards; i++ {
			full[i] = make([]byte, shardsz)
		}

		if err = enc.Encode(full); err != nil {
			return err
		}

		buf = pint32(uint32(len(payload)), buf)
		buf = pint32(uint32(shardsz), buf)
		for _, sh := range full {
			buf = append(buf, sh...)
		}
		for _, sh := range full {
			buf = pint64(crc64.Checksum(sh, crctbl), buf)
		}
	}

	return os.WriteFile(fname, buf, 0644)
}

// Open reads a container, verifying every shard's crc64 and
// reconstructing sections whose shards were damaged. A section with more
// than parityShards bad shards is unrecoverable.
func Open(fname string) (f *File, err error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	if len(buf) < 12 {
		return nil, fmt.Errorf("%s: short read", fname)
	}

	id, buf := gint64(buf)
	if id&^uint64(0xFFFFFFFF) != magic {
		return nil, fmt.Errorf("%s: not a signal container: got %x", fname, id)
	}
	if id&0xFFFFFFFF != version {
		return nil, fmt.Errorf("%s: unsupported container version %d", fname, id&0xFFFFFFFF)
	}

	nstrands, buf := gint32(buf)

	enc := newEncoder()
	f = New()
	f.fname = fname

	for si := 0; si < int(nstrands); si++ {
		if len(buf) < 8 {
			return nil, fmt.Errorf("%s: strand %d: short read", fname, si)
		}

		var sectlen, shardsz uint32
		sectlen, buf = gint32(buf)
		shardsz, buf = gint32(buf)

		need := totalShards*int(shardsz) + totalShards*8
		if len(buf) < need {
			return nil, fmt.Errorf("%s: strand %d: short read", fname, si)
		}

		shards := make([][]byte, totalShards)
		for i := range shards {
			shards[i] = buf[:shardsz]
			buf = buf[shardsz:]
		}

		bad := 0
		for i := range shards {
			var crc uint64
			crc, buf = gint64(buf)
			if crc64.Checksum(shards[i], crctbl) != crc {
				shards[i] = nil
				bad++
			}
		}

		if bad > parityShards {
			return nil, fmt.Errorf("%s: strand %d: %w: %d damaged shards", fname, si, Ecorrupt, bad)
		}

		if bad > 0 {
			if err = enc.Reconstruct(shards); err != nil {
				return nil, fmt.Errorf("%s: strand %d: %w: %v", fname, si, Ecorrupt, err)
			}
		}

		var payload bytes.Buffer
		if err = enc.Join(&payload, shards, int(sectlen)); err != nil {
			return nil, fmt.Errorf("%s: strand %d: %w: %v", fname, si, Ecorrupt, err)
		}

		s, err := unpack(payload.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%s: strand %d: %v", fname, si, err)
		}

		f.strands = append(f.strands, s)
	}

	return f, nil
}
