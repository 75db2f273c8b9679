package worker

import (
	"github.com/spec-kit/item-service/internal/service"
)

// StartItemEventsWorker registers item event handlers.
func StartItemEventsWorker(eventsService *service.ItemEventsService) {
	if eventsService == nil {
		return
	}
	eventsService.RegisterHandlers()
}
