package service

import "github.com/avvvet/deckvault-services/internal/comm"

// EventPublisher receives binder change notifications after a successful commit.
// Publishing is best effort and must not block the caller for long.
type EventPublisher interface {
	PublishBinderEvent(eventType string, ev comm.BinderEvent)
}

type noopPublisher struct{}

func (noopPublisher) PublishBinderEvent(string, comm.BinderEvent) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
