package goGuard

import (
	"context"

	"github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/flows"
)

// emitAudit stamps the event with id, time and request origin and queues
// it. It never blocks.
func (e *Engine) emitAudit(ctx context.Context, event audit.Event) {
	if e == nil || e.audit == nil {
		return
	}

	now := e.now()
	event.ID = audit.NewID(now)
	event.Timestamp = now.UTC()
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
		if event.IP == "" {
			event.IP = flows.UnknownOrigin
		}
	}
	if event.UserAgent == "" {
		event.UserAgent = userAgentFromContext(ctx)
	}

	e.audit.Emit(ctx, event)
}
