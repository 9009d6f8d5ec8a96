package render

import "math"

// BOCPDDetector implements Bayesian Online Change-Point Detection (Adams &
// MacKay) over the per-frame dirty-cell count, with a hazard-1/lambda
// prior on regime length and a Gamma-Poisson conjugate predictive for the
// count itself. No library in the retrieval pack offers change-point
// detection; this is small enough, and specific enough to the per-frame
// cost model, to hand-roll on math/stdlib.
type BOCPDDetector struct {
	hazard float64 // 1/lambda, constant hazard rate

	// Gamma(alpha0, beta0) prior on the Poisson rate.
	alpha0, beta0 float64

	// runLength[r] is P(run length = r | data so far). Index 0 means
	// "a change point just occurred before this observation".
	runLength []float64
	alphas    []float64
	betas     []float64
}

// NewBOCPDDetector creates a detector with hazard rate 1/lambda and a
// Gamma(alpha0, beta0) prior on the per-frame dirty-cell rate.
func NewBOCPDDetector(lambda, alpha0, beta0 float64) *BOCPDDetector {
	return &BOCPDDetector{
		hazard:    1.0 / lambda,
		alpha0:    alpha0,
		beta0:     beta0,
		runLength: []float64{1.0},
		alphas:    []float64{alpha0},
		betas:     []float64{beta0},
	}
}

// Observe feeds one frame's dirty-cell count into the detector and
// returns the posterior probability mass on run-length 0 — the signal
// the Strategy Selector uses to bypass hysteresis (mass > 0.5).
func (d *BOCPDDetector) Observe(dirtyCellCount int) float64 {
	x := float64(dirtyCellCount)
	n := len(d.runLength)

	predProbs := make([]float64, n)
	for r := 0; r < n; r++ {
		predProbs[r] = negBinomPMF(x, d.alphas[r], d.betas[r])
	}

	growth := make([]float64, n)
	var changeMass float64
	for r := 0; r < n; r++ {
		joint := d.runLength[r] * predProbs[r]
		growth[r] = joint * (1 - d.hazard)
		changeMass += joint * d.hazard
	}

	newRunLength := make([]float64, n+1)
	newAlphas := make([]float64, n+1)
	newBetas := make([]float64, n+1)

	newRunLength[0] = changeMass
	newAlphas[0] = d.alpha0
	newBetas[0] = d.beta0

	for r := 0; r < n; r++ {
		newRunLength[r+1] = growth[r]
		newAlphas[r+1] = d.alphas[r] + x
		newBetas[r+1] = d.betas[r] + 1
	}

	total := 0.0
	for _, p := range newRunLength {
		total += p
	}
	if total > 0 {
		for i := range newRunLength {
			newRunLength[i] /= total
		}
	}

	const maxRunLengths = 200
	if len(newRunLength) > maxRunLengths {
		newRunLength = newRunLength[:maxRunLengths]
		newAlphas = newAlphas[:maxRunLengths]
		newBetas = newBetas[:maxRunLengths]
	}

	d.runLength = newRunLength
	d.alphas = newAlphas
	d.betas = newBetas

	return d.runLength[0]
}

// ChangePointDetected reports whether the most recent Observe call put
// more than half the posterior mass on a change point just occurring.
func (d *BOCPDDetector) ChangePointDetected() bool {
	return len(d.runLength) > 0 && d.runLength[0] > 0.5
}

// negBinomPMF is the Gamma-Poisson (negative binomial) predictive density
// for observing count x given a Gamma(alpha, beta) belief on the Poisson
// rate: P(x) = NB(x; alpha, beta/(beta+1)).
func negBinomPMF(x, alpha, beta float64) float64 {
	p := beta / (beta + 1)
	logPMF := lgamma(x+alpha) - lgamma(alpha) - lgamma(x+1) +
		alpha*math.Log(p) + x*math.Log(1-p)
	return math.Exp(logPMF)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
