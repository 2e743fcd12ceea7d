package classifier

// RelevancePolicy converts a classification outcome into the 1–5 exam
// relevance score. The numeric weights are policy, not contract: only the
// monotone direction of each adjustment is relied upon elsewhere.
type RelevancePolicy struct {
	Base           int
	PriorityAreas  []string
	PriorityBonus  int
	HighConfidence float64
	LowConfidence  float64
	LongBody       int
	ShortBody      int
	Min            int
	Max            int
}

// DefaultRelevancePolicy returns the stock scoring policy.
func DefaultRelevancePolicy() RelevancePolicy {
	return RelevancePolicy{
		Base: 3,
		PriorityAreas: []string{
			"Política Internacional",
			"História do Brasil",
			"DIREITO",
			"ECONOMIA",
			"Geografia",
		},
		PriorityBonus:  1,
		HighConfidence: 0.7,
		LowConfidence:  0.4,
		LongBody:       1000,
		ShortBody:      200,
		Min:            1,
		Max:            5,
	}
}

// Score computes the relevance for a classified note: base score, bumped
// for priority areas, high confidence, and long on-topic content, docked
// for low confidence and very short notes, clamped to [Min, Max].
func (p RelevancePolicy) Score(area string, confidence float64, bodyLen int) int {
	score := p.Base

	for _, a := range p.PriorityAreas {
		if a == area {
			score += p.PriorityBonus
			break
		}
	}

	switch {
	case confidence > p.HighConfidence:
		score++
	case confidence < p.LowConfidence:
		score--
	}

	switch {
	case bodyLen > p.LongBody:
		score++
	case bodyLen < p.ShortBody:
		score--
	}

	if score < p.Min {
		return p.Min
	}
	if score > p.Max {
		return p.Max
	}
	return score
}
