package sentiment

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/rickgao/tickersense/internal/model"
)

// Boost is a domain term whose presence shifts the compound score.
type Boost struct {
	Term   string
	Weight float64
}

// DefaultBoosts returns the market-slang boost table.
func DefaultBoosts() []Boost {
	return []Boost{
		{"bullish", 1.5},
		{"bearish", -1.5},
		{"rally", 1.0},
		{"crash", -2.0},
		{"surge", 1.0},
		{"plunge", -1.5},
		{"soar", 1.0},
		{"tumble", -1.5},
		{"breakout", 0.8},
		{"breakdown", -1.0},
		{"moon", 2.0},
		{"rocket", 2.0},
		{"dump", -2.0},
		{"pump", 1.5},
		{"yolo", 1.0},
		{"hodl", 0.8},
		{"to the moon", 2.5},
		{"market crash", -3.0},
		{"bull market", 1.5},
		{"bear market", -1.5},
	}
}

// DefaultCompoundLimit bounds the boosted compound score.
const DefaultCompoundLimit = 5.0

var (
	urlPattern   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	noisePattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
)

// Scorer computes single-text sentiment. It is safe for concurrent use.
type Scorer struct {
	boosts []Boost
	limit  float64
}

// NewScorer creates a scorer. A nil boost table uses DefaultBoosts; a
// non-positive limit uses DefaultCompoundLimit.
func NewScorer(boosts []Boost, limit float64) *Scorer {
	if boosts == nil {
		boosts = DefaultBoosts()
	}
	if limit <= 0 {
		limit = DefaultCompoundLimit
	}
	lowered := make([]Boost, 0, len(boosts))
	for _, b := range boosts {
		lowered = append(lowered, Boost{Term: strings.ToLower(b.Term), Weight: b.Weight})
	}
	return &Scorer{boosts: lowered, limit: limit}
}

// Clean strips URLs, apostrophes and punctuation, collapsing whitespace.
func Clean(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = strings.NewReplacer("'", "", "’", "").Replace(text)
	text = noisePattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Score returns the sentiment of text.
func (s *Scorer) Score(text string) model.SentimentScore {
	cleaned := Clean(text)
	if cleaned == "" {
		return model.SentimentScore{Neutral: 1, Label: model.LabelNeutral}
	}

	score := lexiconScore(cleaned)

	lower := strings.ToLower(cleaned)
	compound := score.Compound
	for _, b := range s.boosts {
		if b.Term != "" && strings.Contains(lower, b.Term) {
			compound += b.Weight
		}
	}
	compound = clamp(compound, -s.limit, s.limit)

	score.Compound = compound
	score.Label = model.LabelFor(compound)
	return score
}

// Boosts returns the terms matched in text with their weights.
func (s *Scorer) Boosts(text string) []Boost {
	lower := strings.ToLower(Clean(text))
	var out []Boost
	for _, b := range s.boosts {
		if b.Term != "" && strings.Contains(lower, b.Term) {
			out = append(out, b)
		}
	}
	return out
}

// lexiconScore computes the base polarity of cleaned text in [-1, 1] with
// positive/neutral/negative shares.
func lexiconScore(cleaned string) model.SentimentScore {
	tokens := strings.Fields(cleaned)
	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(t)
	}
	capsDiff := hasMixedCaps(tokens)

	valences := make([]float64, len(tokens))
	for i, word := range lowered {
		if _, ok := intensifiers[word]; ok {
			continue
		}
		v, ok := baseLexicon[word]
		if !ok {
			continue
		}

		if capsDiff && isShouting(tokens[i]) {
			v += math.Copysign(0.733, v)
		}

		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := lowered[i-back]
			if inc, ok := intensifiers[prev]; ok {
				scalar := math.Copysign(inc, v)
				if capsDiff && isShouting(tokens[i-back]) {
					scalar += math.Copysign(0.733, v)
				}
				v += scalar * (1 - 0.05*float64(back-1))
			}
		}

		for back := 1; back <= 3 && i-back >= 0; back++ {
			if negations[lowered[i-back]] {
				v *= -0.74
				break
			}
		}

		valences[i] = v
	}

	// Contrast: clauses after "but" dominate those before it.
	for i, word := range lowered {
		if word != "but" {
			continue
		}
		for j := range valences {
			switch {
			case j < i:
				valences[j] *= 0.5
			case j > i:
				valences[j] *= 1.5
			}
		}
		break
	}

	var sum, pos, neg, neu float64
	for i, v := range valences {
		sum += v
		switch {
		case v > 0:
			pos += v + 1
		case v < 0:
			neg += v - 1
		default:
			if _, isInt := intensifiers[lowered[i]]; !isInt {
				neu++
			}
		}
	}

	compound := 0.0
	if sum != 0 {
		compound = clamp(sum/math.Sqrt(sum*sum+15), -1, 1)
	}

	total := pos + math.Abs(neg) + neu
	if total == 0 {
		return model.SentimentScore{Compound: compound, Neutral: 1}
	}
	return model.SentimentScore{
		Compound: compound,
		Positive: pos / total,
		Neutral:  neu / total,
		Negative: math.Abs(neg) / total,
	}
}

func hasMixedCaps(tokens []string) bool {
	shouting := 0
	for _, t := range tokens {
		if isShouting(t) {
			shouting++
		}
	}
	return shouting > 0 && shouting < len(tokens)
}

func isShouting(token string) bool {
	letters := 0
	for _, r := range token {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
