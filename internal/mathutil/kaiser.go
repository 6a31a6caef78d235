package mathutil

import "math"

// BesselI0 returns the zeroth-order modified Bessel function of the first
// kind, I0(x), summed from its power series
//
//	I0(x) = sum_k ((x/2)^k / k!)^2
//
// The series converges for every x and is accurate to full float64
// precision for the beta range used by Kaiser windows (0 to ~20).
func BesselI0(x float64) float64 {
	half := x / 2
	sum := 1.0
	term := 1.0
	for k := 1; k <= besselMaxTerms; k++ {
		f := half / float64(k)
		term *= f * f
		sum += term
		if term < sum*besselRelCutoff {
			break
		}
	}
	return sum
}

// KaiserBeta maps a stopband attenuation in dB to the Kaiser window beta.
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserBetaHighSlope * (attenuation - kaiserBetaHighOffset)
	case attenuation > kaiserAttLow:
		d := attenuation - kaiserAttLow
		return kaiserBetaMidCoeff*math.Pow(d, kaiserBetaMidPower) + kaiserBetaMidLinear*d
	default:
		return 0
	}
}

// KaiserLength estimates the odd number of taps a Kaiser-windowed lowpass
// needs for the given attenuation (dB) and transition width, the latter as a
// fraction of the sample rate.
func KaiserLength(attenuation, transitionBW float64) int {
	transitionBW = math.Max(transitionBW, kaiserMinTransitionBW)

	n := int(math.Ceil((attenuation-kaiserLengthOffset)/(kaiserLengthDivisor*transitionBW))) + 1
	if n%2 == 0 {
		n++
	}
	return min(max(n, kaiserMinTaps), kaiserMaxTaps)
}
