package chisquare

// PValue bins a unification's (theo, obs) arrays, merging adjacent
// pairs until every cell's expected count is >= 5, then returns the
// chi-square p-value (1 - Gamma-CDF) over the resulting degrees of
// freedom, scaled down for any fraction the unifier itself discarded.
func PValue(u Unification) float64 {
	if len(u.Theo) == 0 {
		return 1
	}

	var binnedTheo, binnedObs []float64
	var accTheo, accObs float64
	for i := range u.Theo {
		accTheo += u.Theo[i]
		accObs += u.Obs[i]
		if accTheo >= 5 || i == len(u.Theo)-1 {
			binnedTheo = append(binnedTheo, accTheo)
			binnedObs = append(binnedObs, accObs)
			accTheo, accObs = 0, 0
		}
	}
	// Fold a too-small trailing bucket into its predecessor.
	if len(binnedTheo) > 1 && binnedTheo[len(binnedTheo)-1] < 5 {
		n := len(binnedTheo)
		binnedTheo[n-2] += binnedTheo[n-1]
		binnedObs[n-2] += binnedObs[n-1]
		binnedTheo = binnedTheo[:n-1]
		binnedObs = binnedObs[:n-1]
	}

	df := len(binnedTheo) - 1
	if df < 1 {
		return 1
	}

	chi2 := 0.0
	for i := range binnedTheo {
		if binnedTheo[i] <= 0 {
			continue
		}
		d := binnedObs[i] - binnedTheo[i]
		chi2 += d * d / binnedTheo[i]
	}

	p := pValue(chi2, df)
	if u.Discard > 0 {
		p *= 1 - u.Discard
	}
	return p
}
