package arbitrage

// AdmitSentiment is the sentiment gate: it rejects an asset only when its
// score is strictly negative. Zero (neutral) and missing scores, which
// callers map to zero, are admitted.
//
// A single signed scalar gating an entire asset regardless of magnitude is a
// deliberate simplification.
func AdmitSentiment(score float64) bool {
	return score >= 0
}
