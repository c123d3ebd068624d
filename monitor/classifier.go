package monitor

import "github.com/poanetwork/escrow-monitor/entity"

type Match struct {
	Route     *Route
	Direction entity.Direction
}

// Classify returns every route the transfer touches, in route order.
// A transfer that touches no escrow yields no matches.
func Classify(event *entity.TransferEvent, routes []*Route) []*Match {
	var matches []*Match
	for _, route := range routes {
		if direction := route.Direction(event); direction != entity.DirectionUnrelated {
			matches = append(matches, &Match{
				Route:     route,
				Direction: direction,
			})
		}
	}
	return matches
}
