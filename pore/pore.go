// The pore package implements the per-k-mer emission model that relates a
// sequencer's raw signal measurements to the underlying sequence. A model
// holds one raw parameter set per k-mer rank plus per-read calibration
// coefficients; baking derives the calibrated parameters the decoding
// engine evaluates against observed events.
package pore

import (
	"errors"
	"fmt"
	"math"

	"squiggle/alphabet"
)

// Strand identifiers used by signal containers
const (
	StrandTemplate   = 0
	StrandComplement = 1
)

var Eformat = errors.New("invalid model format")
var Ecomplete = errors.New("incomplete model")
var Eunscaled = errors.New("model not scaled")

// Raw, uncalibrated parameters for a single k-mer.
type StateParams struct {
	LevelMean float64 // mean of the signal-level distribution
	LevelStdv float64 // stdv of the signal-level distribution
	SdMean    float64 // mean of the per-event noise spread
	SdStdv    float64 // stdv of the per-event noise spread
	SdLambda  float64 // derived shape parameter, set by Bake, not read from files
}

// Calibrated parameters for a single k-mer, with logs cached for
// fast repeated likelihood evaluation.
type ScaledStateParams struct {
	LevelMean    float64
	LevelStdv    float64
	LevelLogStdv float64
	SdMean       float64
	SdLambda     float64
	SdLogLambda  float64
	SdStdv       float64
}

// Per-read calibration coefficients. Drift is recorded by the sequencer
// but is not applied by Bake.
type ScalingParams struct {
	Drift   float64
	Scale   float64
	ScaleSd float64
	Shift   float64
	Var     float64
	VarSd   float64
}

// Identity returns coefficients that leave the raw parameters unchanged.
func Identity() ScalingParams {
	return ScalingParams{Scale: 1, Var: 1, ScaleSd: 1, VarSd: 1}
}

// Emission model for a single reference model file or a single
// (read, strand) pair. Not safe for concurrent mutation; a fully baked,
// unmutated model may be read concurrently.
type Model struct {
	k      int
	states []StateParams       // raw parameters, indexed by k-mer rank
	scaled []ScaledStateParams // calibrated parameters, valid only when baked

	sp     ScalingParams
	soffst float64 // extra shift layered in when models are swapped

	name  string // model name from the header or container
	fname string // where the model was read from

	baked bool
}

func (m *Model) K() int {
	return m.k
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) Filename() string {
	return m.fname
}

func (m *Model) Scaling() ScalingParams {
	return m.sp
}

func (m *Model) ShiftOffset() float64 {
	return m.soffst
}

func (m *Model) SetShiftOffset(v float64) {
	m.soffst = v
}

// Returns the raw parameters, indexed by k-mer rank.
func (m *Model) States() []StateParams {
	return m.states
}

// Reports whether the calibrated parameters reflect the current raw
// parameters and coefficients.
func (m *Model) Scaled() bool {
	return m.baked
}

// Returns the calibrated parameters for the given k-mer rank.
// Valid only after Bake.
func (m *Model) ScaledAt(rank int) *ScaledStateParams {
	return &m.scaled[rank]
}

// ScaledStates returns the calibrated parameter table, or Eunscaled if
// the model hasn't been baked.
func (m *Model) ScaledStates() ([]ScaledStateParams, error) {
	if !m.baked {
		return nil, Eunscaled
	}

	return m.scaled, nil
}

// Sets the calibration coefficients. If the model was already baked,
// the calibrated parameters are rederived so a stale cache is never
// exposed.
func (m *Model) SetScaling(sp ScalingParams) {
	m.sp = sp
	if m.baked {
		m.Bake()
	}
}

// Bake derives the calibrated parameters from the raw parameters and the
// calibration coefficients, caching the log values used in likelihood
// evaluation. The spread distribution is reparameterized as an inverse
// Gaussian: lambda is moment-matched from the raw (mean, stdv), scaled
// independently, and the calibrated stdv is rederived from the scaled
// mean and lambda so the three stay consistent.
func (m *Model) Bake() {
	if len(m.scaled) != len(m.states) {
		m.scaled = make([]ScaledStateParams, len(m.states))
	}

	for i := range m.states {
		s := &m.states[i]
		s.SdLambda = math.Pow(s.SdMean, 3) / math.Pow(s.SdStdv, 2)

		sc := &m.scaled[i]
		sc.LevelMean = s.LevelMean*m.sp.Scale + m.sp.Shift
		sc.LevelStdv = s.LevelStdv * m.sp.Var

		sc.SdMean = s.SdMean * m.sp.ScaleSd
		sc.SdLambda = s.SdLambda * m.sp.VarSd
		sc.SdStdv = math.Sqrt(math.Pow(sc.SdMean, 3) / sc.SdLambda)

		sc.LevelLogStdv = math.Log(sc.LevelStdv)
		sc.SdLogLambda = math.Log(sc.SdLambda)
	}

	m.baked = true
}

// Update replaces the raw parameters wholesale, e.g. with a freshly
// re-estimated set, and layers shiftOffset on top of the current shift.
// The offset is what lets a replacement trained against a different
// baseline average be substituted without rederiving the rest of the
// calibration; pass 0 when the replacement shares the baseline. The
// replacement must cover every k-mer rank. If the model was baked, it is
// rebaked; otherwise the calibrated parameters stay absent until Bake is
// called.
func (m *Model) Update(states []StateParams, shiftOffset float64) error {
	if len(states) != len(m.states) {
		return fmt.Errorf("%w: got %d states, expected %d", Ecomplete, len(states), len(m.states))
	}

	m.sp.Shift += shiftOffset

	// the model owns its state vector exclusively
	copy(m.states, states)

	if m.baked {
		m.Bake()
	}

	return nil
}

// UpdateFrom replaces the raw parameters with another model's, adopting
// its k-mer length and layering its shift offset.
func (m *Model) UpdateFrom(other *Model) error {
	if m.k != other.k {
		m.k = other.k
		m.states = make([]StateParams, len(other.states))
	}

	return m.Update(other.states, other.soffst)
}

const logSqrt2Pi = 0.9189385332046727 // ln(sqrt(2*pi))

// LevelLogProb returns the log density of an observed event level under
// the calibrated level distribution of the k-mer with the given rank.
// Valid only after Bake.
func (m *Model) LevelLogProb(rank int, level float64) float64 {
	sc := &m.scaled[rank]
	z := (level - sc.LevelMean) / sc.LevelStdv

	return -0.5*z*z - sc.LevelLogStdv - logSqrt2Pi
}

// SdLogProb returns the log density of an observed event noise spread
// under the calibrated inverse-Gaussian spread distribution of the k-mer
// with the given rank. Valid only after Bake.
func (m *Model) SdLogProb(rank int, sd float64) float64 {
	sc := &m.scaled[rank]
	d := sd - sc.SdMean

	return 0.5*(sc.SdLogLambda-math.Log(2*math.Pi*sd*sd*sd)) -
		sc.SdLambda*d*d/(2*sc.SdMean*sc.SdMean*sd)
}

// checks a raw parameter row at ingestion time, so division by zero or
// non-finite logs can't be produced later by Bake
func checkState(s StateParams) error {
	if s.LevelStdv <= 0 {
		return fmt.Errorf("%w: level_stdv %v not positive", Eformat, s.LevelStdv)
	}

	if s.SdMean <= 0 || s.SdStdv <= 0 {
		return fmt.Errorf("%w: sd_mean %v, sd_stdv %v not positive", Eformat, s.SdMean, s.SdStdv)
	}

	return nil
}

// allocates the state table for k-mers of length k
func newModel(k int, ab alphabet.Alphabet) *Model {
	m := new(Model)
	m.k = k
	m.states = make([]StateParams, ab.NumKmers(k))
	m.sp = Identity()

	return m
}
