package usecase

import "TradePulse/internal/domain/models"

// Aggregate reduces per-timeframe candidates for one ticker to at most one
// bullish and one bearish winner: highest confidence per direction, equal
// confidence resolved toward the shorter timeframe.
func Aggregate(candidates []*models.CandidateSignal) []*models.CandidateSignal {
	var bullish, bearish *models.CandidateSignal
	for _, c := range candidates {
		if c == nil {
			continue
		}
		switch {
		case c.Classification.IsBullish():
			bullish = better(bullish, c)
		case c.Classification.IsBearish():
			bearish = better(bearish, c)
		}
	}
	out := make([]*models.CandidateSignal, 0, 2)
	if bullish != nil {
		out = append(out, bullish)
	}
	if bearish != nil {
		out = append(out, bearish)
	}
	return out
}

func better(cur, cand *models.CandidateSignal) *models.CandidateSignal {
	if cur == nil {
		return cand
	}
	if cand.Confidence > cur.Confidence {
		return cand
	}
	if cand.Confidence == cur.Confidence && cand.Timeframe.Duration() < cur.Timeframe.Duration() {
		return cand
	}
	return cur
}
