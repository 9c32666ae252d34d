package models

// Pair is an unordered user pair in canonical form: Low < High.
type Pair struct {
	Low  string
	High string
}

// CanonicalPair orders a and b so both call directions map to one key.
func CanonicalPair(a, b string) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

func (p Pair) Contains(userID string) bool {
	return p.Low == userID || p.High == userID
}

// Other returns the participant that is not userID.
func (p Pair) Other(userID string) string {
	if p.Low == userID {
		return p.High
	}
	return p.Low
}

func (p Pair) Users() []string {
	return []string{p.Low, p.High}
}
