package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/channel"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/responder"
	"github.com/mini-maxit/judge-harness/internal/resultstore"
	"github.com/mini-maxit/judge-harness/internal/scheduler"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/pkg/messages"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	e "errors"
)

const resultLookupTimeout = 5 * time.Second

type Consumer interface {
	Listen()
}

type consumer struct {
	channel         channel.Channel
	workerQueueName string
	scheduler       scheduler.Scheduler
	responder       responder.Responder
	store           resultstore.Store
	logger          *zap.SugaredLogger
}

// NewConsumer creates a queue consumer. store may be nil, in which case result
// queries are answered with ErrResultStoreUnavailable.
func NewConsumer(
	mainChannel channel.Channel,
	workerQueueName string,
	scheduler scheduler.Scheduler,
	responder responder.Responder,
	store resultstore.Store,
) Consumer {
	logger := logger.NewNamedLogger("consumer")

	return &consumer{
		channel:         mainChannel,
		workerQueueName: workerQueueName,
		scheduler:       scheduler,
		responder:       responder,
		store:           store,
		logger:          logger,
	}
}

func (c *consumer) Listen() {
	c.logger.Infof("Declaring queue %s", c.workerQueueName)

	args := make(amqp.Table)
	args["x-max-priority"] = constants.RabbitMQMaxPriority
	_, err := c.channel.QueueDeclare(c.workerQueueName, true, false, false, false, args)
	if err != nil {
		c.logger.Panicf("Failed to declare queue %s: %s", c.workerQueueName, err)
	}

	c.logger.Infof("Listening for messages on queue %s", c.workerQueueName)

	msgs, err := c.channel.Consume(c.workerQueueName, "", true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to consume messages from queue %s: %s", c.workerQueueName, err)
	}

	for msg := range msgs {
		c.processMessage(msg)
	}
}

func (c *consumer) processMessage(msg amqp.Delivery) {
	var queueMessage messages.QueueMessage
	err := json.Unmarshal(msg.Body, &queueMessage)
	if err != nil {
		c.logger.Errorf("Failed to unmarshal message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, msg.ReplyTo, err)
		return
	}

	switch queueMessage.Type {
	case constants.QueueMessageTypeTask:
		c.logger.Infof("Received task message [MsgID: %s]", queueMessage.MessageID)
		c.handleTaskMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeStatus:
		c.logger.Infof("Received status message [MsgID: %s]", queueMessage.MessageID)
		c.handleStatusMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeHandshake:
		c.logger.Infof("Received handshake message [MsgID: %s]", queueMessage.MessageID)
		c.handleHandshakeMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeResult:
		c.logger.Infof("Received result message [MsgID: %s]", queueMessage.MessageID)
		c.handleResultMessage(queueMessage, msg.ReplyTo)
	default:
		c.logger.Errorf("Unknown message type: %s [MsgID: %s]", queueMessage.Type, queueMessage.MessageID)
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			msg.ReplyTo,
			errors.ErrUnknownMessageType)
	}
}

// requeueTask puts the message back with a raised priority so it is picked up
// before newer submissions once a worker frees up.
func (c *consumer) requeueTask(queueMessage messages.QueueMessage, replyTo string) error {
	queueMessageJSON, err := json.Marshal(queueMessage)
	if err != nil {
		c.logger.Errorf("Failed to marshal queue message: %s", err)
		return err
	}

	return c.responder.Publish(c.workerQueueName, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: queueMessage.MessageID,
		ReplyTo:       replyTo,
		Body:          queueMessageJSON,
		Priority:      uint8(constants.RabbitMQRequeuePriority),
	})
}

func (c *consumer) handleTaskMessage(queueMessage messages.QueueMessage, replyTo string) {
	var task *messages.TaskQueueMessage
	if err := json.Unmarshal(queueMessage.Payload, &task); err != nil || task == nil {
		if err == nil {
			err = errors.ErrEmptySourceCode
		}
		c.logger.Errorf("Failed to unmarshal task message: %s [MsgID: %s]", err, queueMessage.MessageID)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		return
	}

	err := c.scheduler.ProcessTask(replyTo, queueMessage.MessageID, task)
	if err == nil {
		return
	}

	if e.Is(err, errors.ErrFailedToGetFreeWorker) {
		c.logger.Infof("No free worker, requeueing [MsgID: %s]", queueMessage.MessageID)
		if requeueErr := c.requeueTask(queueMessage, replyTo); requeueErr != nil {
			c.logger.Errorf("Failed to requeue task: %s [MsgID: %s]", requeueErr, queueMessage.MessageID)
			c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, requeueErr)
		}
		return
	}

	c.logger.Errorf("Failed to process task message: %s [MsgID: %s]", err, queueMessage.MessageID)
	c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
}

func (c *consumer) handleStatusMessage(queueMessage messages.QueueMessage, replyTo string) {
	status := c.scheduler.GetWorkersStatus()
	c.responder.PublishSuccessStatusRespond(queueMessage.Type, queueMessage.MessageID, replyTo, status)
}

func (c *consumer) handleHandshakeMessage(queueMessage messages.QueueMessage, replyTo string) {
	specs := languages.GetSupportedLanguagesWithVersions()
	c.responder.PublishSuccessHandshakeRespond(queueMessage.Type, queueMessage.MessageID, replyTo, specs)
}

func (c *consumer) handleResultMessage(queueMessage messages.QueueMessage, replyTo string) {
	if c.store == nil {
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type, queueMessage.MessageID, replyTo, errors.ErrResultStoreUnavailable)
		return
	}

	var query messages.ResultQueryMessage
	if err := json.Unmarshal(queueMessage.Payload, &query); err != nil {
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		return
	}
	if query.TaskMessageID == "" {
		query.TaskMessageID = queueMessage.MessageID
	}

	ctx, cancel := context.WithTimeout(context.Background(), resultLookupTimeout)
	defer cancel()

	payload, err := c.store.Get(ctx, query.TaskMessageID)
	if err != nil {
		c.logger.Infof("Result lookup for %s failed: %s [MsgID: %s]", query.TaskMessageID, err, queueMessage.MessageID)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		return
	}

	c.responder.PublishPayloadTaskRespond(queueMessage.Type, queueMessage.MessageID, replyTo, json.RawMessage(payload))
}
