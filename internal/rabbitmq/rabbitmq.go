package rabbitmq

import (
	"time"

	"github.com/mini-maxit/judge-harness/internal/config"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/channel"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectBackoff = 2 * time.Second

// NewRabbitMqConnection dials the broker, retrying while it is still starting.
func NewRabbitMqConnection(cfg *config.Config) *amqp.Connection {
	logger := logger.NewNamedLogger("rabbitmq")

	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= constants.RabbitMQReconnectTries; attempt++ {
		conn, err = amqp.Dial(cfg.RabbitMQURL)
		if err == nil {
			logger.Info("Connected to RabbitMQ")
			return conn
		}
		logger.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %s",
			attempt, constants.RabbitMQReconnectTries, err)
		time.Sleep(reconnectBackoff * time.Duration(attempt))
	}

	logger.Fatalf("Failed to connect to RabbitMQ: %s", err)
	return nil
}

func NewRabbitMQChannel(conn *amqp.Connection) channel.Channel {
	logger := logger.NewNamedLogger("rabbitmq")

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("Failed to open a channel: %s", err)
	}

	return channel.NewAmqpChannel(ch)
}
