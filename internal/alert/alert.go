package alert

import (
	"fmt"
	"strconv"

	"stocktracker/internal/quote"
	"stocktracker/internal/watchlist"
)

// Event is one threshold breach, consumed once by the notification queue
// and never persisted.
type Event struct {
	Symbol  string
	Message string
}

// Evaluate compares fresh quotes against the watchlist thresholds. A quote
// sitting at or beyond a threshold fires on every cycle it is observed;
// there is no hysteresis or debounce. High and low are checked
// independently, so a degenerate configuration with low >= high can fire
// both in the same cycle.
func Evaluate(quotes []quote.Quote, items []watchlist.Item) []Event {
	bySymbol := make(map[string]watchlist.Item, len(items))
	for _, it := range items {
		bySymbol[it.Symbol] = it
	}

	var events []Event
	for _, q := range quotes {
		it, ok := bySymbol[q.Symbol]
		if !ok || it.Alert == nil {
			continue
		}
		if it.Alert.High != nil && q.Price >= *it.Alert.High {
			events = append(events, Event{
				Symbol:  q.Symbol,
				Message: fmt.Sprintf("%s 达到提醒价格 %s", q.Name, formatPrice(*it.Alert.High)),
			})
		}
		if it.Alert.Low != nil && q.Price <= *it.Alert.Low {
			events = append(events, Event{
				Symbol:  q.Symbol,
				Message: fmt.Sprintf("%s 低于提醒价格 %s", q.Name, formatPrice(*it.Alert.Low)),
			})
		}
	}
	return events
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
