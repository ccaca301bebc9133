package route

import "errors"

// ErrNoRoute is returned when no venue produced a usable quote. Callers
// should disable the swap action rather than surface an error banner.
var ErrNoRoute = errors.New("no venue has a usable quote")

var priorityRank = func() map[Venue]int {
	m := make(map[Venue]int, len(Priority))
	for i, v := range Priority {
		m[v] = i
	}
	return m
}()

// SelectBest picks the route with the strictly maximal estimated output.
// Exact ties resolve to the earlier venue in Priority, so repeated calls
// with the same quotes always return the same route.
func SelectBest(quotes []Route) (Route, error) {
	var best Route
	found := false

	for _, q := range quotes {
		if !q.Usable() {
			continue
		}
		if !found {
			best = q
			found = true
			continue
		}

		switch q.AmountOut.Cmp(best.AmountOut) {
		case 1:
			best = q
		case 0:
			if rank(q.Venue) < rank(best.Venue) {
				best = q
			}
		}
	}

	if !found {
		return Route{}, ErrNoRoute
	}
	return best, nil
}

func rank(v Venue) int {
	r, ok := priorityRank[v]
	if !ok {
		// Unknown venues lose every tie
		return len(Priority)
	}
	return r
}
