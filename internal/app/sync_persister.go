package app

import (
	"context"

	"axel-advisor/internal/model"
)

type messageWriter interface {
	Create(message *model.Message) error
}

// SyncPersister writes messages straight through the repository. It is the
// persister for deployments without a message broker; with a broker the
// RabbitMQ publisher takes its place and a single consumer preserves append
// order.
type SyncPersister struct {
	messages messageWriter
}

func NewSyncPersister(messages messageWriter) *SyncPersister {
	return &SyncPersister{messages: messages}
}

func (p *SyncPersister) Persist(ctx context.Context, msg model.Message) error {
	return p.messages.Create(&msg)
}
