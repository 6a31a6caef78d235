package mathutil

// I0 power series control.
const (
	besselMaxTerms  = 500   // upper bound on series terms
	besselRelCutoff = 1e-17 // stop once a term no longer moves the sum
)

// Kaiser & Schafer empirical design formulas.
const (
	kaiserAttHigh         = 50.0    // dB, linear beta region above this
	kaiserAttLow          = 21.0    // dB, beta is zero at or below this
	kaiserBetaHighSlope   = 0.1102  // beta = slope * (att - offset)
	kaiserBetaHighOffset  = 8.7     // dB
	kaiserBetaMidCoeff    = 0.5842  // beta = coeff*(att-21)^power + linear*(att-21)
	kaiserBetaMidPower    = 0.4
	kaiserBetaMidLinear   = 0.07886
	kaiserLengthOffset    = 7.95  // N-1 = (att - offset) / (divisor * df)
	kaiserLengthDivisor   = 14.36
	kaiserMinTaps         = 3
	kaiserMaxTaps         = 4095
	kaiserMinTransitionBW = 1e-4 // normalized, avoids division by zero
)
