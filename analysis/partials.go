package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-grand/acoustics"
)

// MeasuredPartial is one spectral peak extracted from a recording.
type MeasuredPartial struct {
	Index       int     `json:"index"` // 1 = fundamental
	FrequencyHz float64 `json:"frequency_hz"`
	MagnitudeDB float64 `json:"magnitude_db"`
}

// Measurement holds the measured partials of one note.
type Measurement struct {
	Note     int               `json:"note"`
	Partials []MeasuredPartial `json:"partials"`
}

// Metrics summarizes how closely the stiffness model matches a set of
// measured partial tables.
type Metrics struct {
	NotesCompared    int     `json:"notes_compared"`
	PartialsCompared int     `json:"partials_compared"`

	RMSECents   float64 `json:"rmse_cents"`
	MaxAbsCents float64 `json:"max_abs_cents"`
	WorstNote   int     `json:"worst_note"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// CentsDeviation returns the pitch deviation of measured from predicted.
func CentsDeviation(measuredHz float64, predictedHz float64) float64 {
	if measuredHz <= 0 || predictedHz <= 0 {
		return 0
	}
	return 1200.0 * math.Log2(measuredHz/predictedHz)
}

// Compare evaluates predicted partial frequencies against measurements and
// returns aggregate deviation metrics plus a combined score in [0,1].
func Compare(measurements []Measurement, s *acoustics.Settings) Metrics {
	var m Metrics
	var sumSq float64

	for _, meas := range measurements {
		if len(meas.Partials) == 0 {
			continue
		}
		maxIdx := 0
		for _, p := range meas.Partials {
			if p.Index > maxIdx {
				maxIdx = p.Index
			}
		}
		freqs, _ := acoustics.PartialSeries(meas.Note, 100, maxIdx, s)

		noteCounted := false
		for _, p := range meas.Partials {
			if p.Index < 1 || p.Index > len(freqs) || p.FrequencyHz <= 0 {
				continue
			}
			dev := CentsDeviation(p.FrequencyHz, freqs[p.Index-1])
			sumSq += dev * dev
			m.PartialsCompared++
			noteCounted = true
			if a := math.Abs(dev); a > m.MaxAbsCents {
				m.MaxAbsCents = a
				m.WorstNote = meas.Note
			}
		}
		if noteCounted {
			m.NotesCompared++
		}
	}

	if m.PartialsCompared == 0 {
		m.Score = 1.0
		return m
	}
	m.RMSECents = math.Sqrt(sumSq / float64(m.PartialsCompared))

	// 50 cents RMS is a hopeless fit.
	m.Score = m.RMSECents / 50.0
	if m.Score > 1 {
		m.Score = 1
	}
	m.Similarity = math.Exp(-4.0 * m.Score)
	return m
}

// ExtractPartials locates the first maxPartials spectral peaks of a
// recording near multiples of f0Hint. It expects a reasonably clean single
// note; the search window widens with the partial index to follow
// stiffness stretching.
func ExtractPartials(samples []float64, sampleRate int, f0Hint float64, maxPartials int) ([]MeasuredPartial, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0")
	}
	if f0Hint <= 0 {
		return nil, fmt.Errorf("f0 hint must be > 0")
	}
	if maxPartials < 1 {
		return nil, fmt.Errorf("max partials must be >= 1")
	}

	fftSize := 1 << 13
	for fftSize < 32*int(float64(sampleRate)/f0Hint) && fftSize < 1<<18 {
		fftSize <<= 1
	}
	if len(samples) < fftSize {
		return nil, fmt.Errorf("need at least %d samples, got %d", fftSize, len(samples))
	}

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, err
	}

	buf := make([]float64, fftSize)
	for i := 0; i < fftSize; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
		buf[i] = samples[i] * w
	}
	spec := make([]complex128, fftSize/2+1)
	plan.Forward(spec, buf)

	mags := make([]float64, len(spec))
	for k := range spec {
		mags[k] = cmplx.Abs(spec[k])
	}

	binHz := float64(sampleRate) / float64(fftSize)
	nyquist := float64(sampleRate) / 2.0
	out := make([]MeasuredPartial, 0, maxPartials)

	// Track the measured stretch so the window for partial k+1 follows the
	// series rather than the ideal harmonic grid.
	stretch := 1.0
	for k := 1; k <= maxPartials; k++ {
		center := float64(k) * f0Hint * stretch
		if center >= nyquist*0.95 {
			break
		}
		halfWidth := f0Hint * (0.25 + 0.02*float64(k))
		lo := int((center - halfWidth) / binHz)
		hi := int((center + halfWidth) / binHz)
		if lo < 1 {
			lo = 1
		}
		if hi > len(mags)-2 {
			hi = len(mags) - 2
		}
		if lo >= hi {
			break
		}

		peak := lo
		for b := lo + 1; b <= hi; b++ {
			if mags[b] > mags[peak] {
				peak = b
			}
		}
		freq := (float64(peak) + parabolicOffset(mags, peak)) * binHz
		out = append(out, MeasuredPartial{
			Index:       k,
			FrequencyHz: freq,
			MagnitudeDB: linToDB(mags[peak]),
		})
		if k >= 1 && freq > 0 {
			stretch = freq / (float64(k) * f0Hint)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no partials found near %.1f Hz", f0Hint)
	}
	return out, nil
}

// parabolicOffset refines a peak bin position by fitting a parabola through
// the three magnitudes around it.
func parabolicOffset(mags []float64, peak int) float64 {
	if peak < 1 || peak > len(mags)-2 {
		return 0
	}
	a := mags[peak-1]
	b := mags[peak]
	c := mags[peak+1]
	den := a - 2*b + c
	if math.Abs(den) < 1e-18 {
		return 0
	}
	off := 0.5 * (a - c) / den
	if off < -0.5 || off > 0.5 {
		return 0
	}
	return off
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
