package trend

// olsFit fits an ordinary least-squares line y = slope*x + intercept.
// ok is false when the x values carry no variance (vertical fit).
func olsFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0, false
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, 0, false
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept, true
}

// rSquared is the coefficient of determination of the fitted line. A flat
// series (zero variance in y) fits perfectly and scores 1.
func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= float64(len(ys))

	var ssTot, ssRes float64
	for i := range ys {
		dy := ys[i] - meanY
		ssTot += dy * dy
		residual := ys[i] - (slope*xs[i] + intercept)
		ssRes += residual * residual
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}
