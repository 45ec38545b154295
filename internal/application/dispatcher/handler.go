package dispatcher

import (
	"context"

	"github.com/openfin/budget-approval/internal/domain/event"
)

// Handler processes outbound event descriptors
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
