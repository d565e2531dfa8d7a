// Package events delivers order lifecycle events to a broker or the log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"thriftbazaar/internal/config"
	"thriftbazaar/internal/domain"
)

// Publisher is satisfied by every backend in this package.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
	io.Closer
}

func encode(ev domain.Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("could not marshal event: %w", err)
	}
	return b, nil
}

// New builds the publisher selected by EVENTS_BACKEND.
func New(cfg config.Config) (Publisher, error) {
	switch cfg.EventsBackend {
	case "", "log":
		return LogPublisher{}, nil
	case "rabbitmq":
		return DialRabbit(cfg.AMQPURL)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers...), nil
	}
	return nil, fmt.Errorf("unknown EVENTS_BACKEND %q", cfg.EventsBackend)
}
