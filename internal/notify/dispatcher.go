package notify

import (
	"context"
	"log"

	"github.com/magiaym/cartelera/internal/model"
)

// Transport delivers one message to one recipient.  The Telegram client
// implements it; tests substitute fakes.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Discard is the no-op transport used when no chat token is configured;
// change detection and state upkeep keep running without deliveries.
type Discard struct{}

// SendMessage drops the message.
func (Discard) SendMessage(context.Context, int64, string) error { return nil }

// Dispatcher renders change events and fans the combined alert out to every
// subscriber.  Delivery is independent per recipient: a blocked or
// unreachable chat is logged and skipped, it never aborts the batch and
// never rolls anything back.
type Dispatcher struct {
	Transport Transport
	Limit     int // transport message size limit; 0 means DefaultLimit
}

// Dispatch sends the alert for the cycle's events to all subscribers.  With
// no events or no subscribers it does nothing and makes no transport call.
// It returns how many recipients were delivered at least one part.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.ChangeEvent, subscribers []int64) int {
	if len(events) == 0 || len(subscribers) == 0 {
		return 0
	}
	text := RenderAlert(events)
	if text == "" {
		return 0
	}
	parts := Split(text, d.Limit)

	delivered := 0
	for _, chatID := range subscribers {
		ok := true
		for _, part := range parts {
			if err := d.Transport.SendMessage(ctx, chatID, part); err != nil {
				log.Printf("notify: send to %d failed: %v", chatID, err)
				ok = false
				break
			}
		}
		if ok {
			delivered++
		}
	}
	return delivered
}
