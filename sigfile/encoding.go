package sigfile

// On-disk encoding of a strand section payload:
//
//	mfile length, mfile bytes
//	drift, scale, scale_sd, shift, var, var_sd
//	k, entry count
//	per entry: k-mer bytes, level_mean, level_stdv, sd_mean, sd_stdv
//
// All integers are 32 or 64 bit little-endian, floats are IEEE 754 bits.

import (
	"errors"
	"math"

	"squiggle/pore"
)

func (s *strand) pack() (buf []byte) {
	buf = pint32(uint32(len(s.mfile)), buf)
	buf = append(buf, s.mfile...)

	buf = pfloat(s.sp.Drift, buf)
	buf = pfloat(s.sp.Scale, buf)
	buf = pfloat(s.sp.ScaleSd, buf)
	buf = pfloat(s.sp.Shift, buf)
	buf = pfloat(s.sp.Var, buf)
	buf = pfloat(s.sp.VarSd, buf)

	buf = pint32(uint32(s.k), buf)
	buf = pint32(uint32(len(s.entries)), buf)
	for _, e := range s.entries {
		buf = append(buf, e.Kmer...)
		buf = pfloat(e.LevelMean, buf)
		buf = pfloat(e.LevelStdv, buf)
		buf = pfloat(e.SdMean, buf)
		buf = pfloat(e.SdStdv, buf)
	}

	return buf
}

func unpack(buf []byte) (s *strand, err error) {
	var v uint32

	s = new(strand)

	if v, buf, err = guint32(buf); err != nil {
		return nil, err
	}
	if len(buf) < int(v) {
		return nil, errors.New("short read")
	}
	s.mfile = string(buf[:v])
	buf = buf[v:]

	for _, p := range []*float64{&s.sp.Drift, &s.sp.Scale, &s.sp.ScaleSd, &s.sp.Shift, &s.sp.Var, &s.sp.VarSd} {
		if *p, buf, err = gfloat(buf); err != nil {
			return nil, err
		}
	}

	if v, buf, err = guint32(buf); err != nil {
		return nil, err
	}
	s.k = int(v)

	if v, buf, err = guint32(buf); err != nil {
		return nil, err
	}

	s.entries = make([]pore.ModelEntry, int(v))
	for i := range s.entries {
		e := &s.entries[i]

		if len(buf) < s.k {
			return nil, errors.New("short read")
		}
		e.Kmer = string(buf[:s.k])
		buf = buf[s.k:]

		for _, p := range []*float64{&e.LevelMean, &e.LevelStdv, &e.SdMean, &e.SdStdv} {
			if *p, buf, err = gfloat(buf); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

func guint32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, errors.New("short read")
	}

	v, p := gint32(buf)
	return v, p, nil
}

func gfloat(buf []byte) (float64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, errors.New("short read")
	}

	v, p := gint64(buf)
	return math.Float64frombits(v), p, nil
}

func pfloat(val float64, buf []byte) []byte {
	return pint64(math.Float64bits(val), buf)
}

func gint32(buf []byte) (uint32, []byte) {
	return uint32(buf[0]) | (uint32(buf[1]) << 8) | (uint32(buf[2]) << 16) |
			(uint32(buf[3]) << 24),
		buf[4:]
}

func gint64(buf []byte) (uint64, []byte) {
	return uint64(buf[0]) | (uint64(buf[1]) << 8) | (uint64(buf[2]) << 16) |
			(uint64(buf[3]) << 24) | (uint64(buf[4]) << 32) | (uint64(buf[5]) << 40) |
			(uint64(buf[6]) << 48) | (uint64(buf[7]) << 56),
		buf[8:]
}

func pint32(val uint32, buf []byte) []byte {
	buf = append(buf, uint8(val))
	buf = append(buf, uint8(val>>8))
	buf = append(buf, uint8(val>>16))
	buf = append(buf, uint8(val>>24))
	return buf
}

func pint64(val uint64, buf []byte) []byte {
	buf = append(buf, uint8(val))
	buf = append(buf, uint8(val>>8))
	buf = append(buf, uint8(val>>16))
	buf = append(buf, uint8(val>>24))
	buf = append(buf, uint8(val>>32))
	buf = append(buf, uint8(val>>40))
	buf = append(buf, uint8(val>>48))
	buf = append(buf, uint8(val>>56))
	return buf
}
