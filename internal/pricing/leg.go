package pricing

// Leg selects the put or the call side of an option pair.
type Leg int

const (
	Put Leg = iota
	Call
)

// Legs lists both legs in output order.
var Legs = [...]Leg{Put, Call}

func (l Leg) String() string {
	switch l {
	case Put:
		return "put"
	case Call:
		return "call"
	}
	return "unknown"
}

// LegPair holds one value per leg. Inputs (volatility) and every derived
// quantity (d1, d2, prices, Greeks) travel through the engine in this shape.
type LegPair[T any] struct {
	Put  T `json:"put"`
	Call T `json:"call"`
}

// Both returns a pair with the same value on each leg.
func Both[T any](v T) LegPair[T] {
	return LegPair[T]{Put: v, Call: v}
}

// ForLegs builds a pair by evaluating f once per leg.
func ForLegs[T any](f func(Leg) T) LegPair[T] {
	return LegPair[T]{Put: f(Put), Call: f(Call)}
}

// Get returns the value for leg l.
func (p LegPair[T]) Get(l Leg) T {
	if l == Call {
		return p.Call
	}
	return p.Put
}

// Scale multiplies both legs by k.
func Scale(p LegPair[float64], k float64) LegPair[float64] {
	return LegPair[float64]{Put: p.Put * k, Call: p.Call * k}
}
