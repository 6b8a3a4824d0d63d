// Package sentiment scores recent social posts per asset and feeds the
// resulting signal into opportunity evaluation.
package sentiment

import (
	"math"
	"strings"
)

// lexicon maps tokens to raw valence. Values follow the usual convention of
// roughly [-4, 4] before normalization.
var lexicon = map[string]float64{
	"moon":        2.9,
	"bullish":     2.6,
	"bull":        2.1,
	"pump":        1.8,
	"rally":       1.9,
	"surge":       1.8,
	"gain":        1.6,
	"gains":       1.6,
	"profit":      1.7,
	"up":          1.1,
	"ath":         2.3,
	"breakout":    1.9,
	"buy":         1.4,
	"hodl":        1.2,
	"strong":      1.5,
	"win":         1.7,
	"good":        1.9,
	"great":       2.4,
	"love":        2.7,
	"bearish":     -2.6,
	"bear":        -2.1,
	"dump":        -2.2,
	"crash":       -3.1,
	"plunge":      -2.5,
	"drop":        -1.6,
	"down":        -1.1,
	"loss":        -1.8,
	"losses":      -1.8,
	"sell":        -1.2,
	"selloff":     -2.0,
	"rekt":        -2.8,
	"scam":        -3.3,
	"rug":         -3.0,
	"rugpull":     -3.2,
	"fud":         -1.9,
	"fear":        -1.9,
	"panic":       -2.4,
	"bad":         -1.9,
	"terrible":    -2.6,
	"liquidated":  -2.5,
	"liquidation": -2.3,
	"hack":        -2.9,
	"hacked":      -3.0,
	"exploit":     -2.7,
}

// negations flip the valence of the following scored token.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true,
	"nobody": true, "none": true, "dont": true, "don't": true,
	"cant": true, "can't": true, "wont": true, "won't": true,
	"isnt": true, "isn't": true, "aint": true, "ain't": true,
}

// boosters scale the valence of the following scored token.
var boosters = map[string]float64{
	"very": 0.293, "really": 0.293, "extremely": 0.293,
	"super": 0.293, "so": 0.293, "huge": 0.293, "massive": 0.293,
	"slightly": -0.293, "somewhat": -0.293, "barely": -0.293,
}

// Analyzer computes a compound polarity score for short texts using a
// crypto-tuned valence lexicon with negation and booster handling.
type Analyzer struct{}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Compound scores text into [-1, 1]. Zero means neutral or no scored tokens.
func (a *Analyzer) Compound(text string) float64 {
	tokens := tokenize(text)

	var sum float64
	for i, tok := range tokens {
		valence, ok := lexicon[tok]
		if !ok {
			continue
		}

		// Look back up to two tokens for modifiers.
		for back := 1; back <= 2 && i-back >= 0; back++ {
			prev := tokens[i-back]
			if negations[prev] {
				valence = -valence
				break
			}
			if b, ok := boosters[prev]; ok {
				if valence > 0 {
					valence += b
				} else {
					valence -= b
				}
			}
		}

		sum += valence
	}

	return normalize(sum)
}

// normalize maps an unbounded valence sum into [-1, 1].
func normalize(sum float64) float64 {
	if sum == 0 {
		return 0
	}
	norm := sum / math.Sqrt(sum*sum+15)
	if norm > 1 {
		return 1
	}
	if norm < -1 {
		return -1
	}
	return norm
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]#$@")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
