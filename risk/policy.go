package risk

// Policy holds the tunables a leverage setting may tighten.
type Policy struct {
	RiskTolerance float64
	MinConfidence int
}

// ForLeverage tightens the policy for leveraged accounts. Above 1x the
// minimum confidence rises to at least 60 + L/10. Risk tolerance is capped
// at 0.5 from 20x and at 0.3 from 50x.
func (p Policy) ForLeverage(leverage int) Policy {
	out := p
	if leverage <= 1 {
		return out
	}
	out.MinConfidence = max(out.MinConfidence, 60+leverage/10)
	switch {
	case leverage >= 50:
		out.RiskTolerance = min(out.RiskTolerance, 0.3)
	case leverage >= 20:
		out.RiskTolerance = min(out.RiskTolerance, 0.5)
	}
	return out
}
