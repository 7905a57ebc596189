package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/pkg/config"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// Connect opens the bus selected by cfg.Driver. It returns (nil, nil) for
// the "none" driver.
func Connect(cfg config.QueueConfig, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Driver {
	case "", "none":
		log.Info("Event bus disabled")
		return nil, nil
	case "nats":
		q, err := NewNATSQueue(cfg, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "rabbitmq":
		q, err := NewRabbitMQQueue(cfg, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
