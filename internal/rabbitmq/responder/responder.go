package responder

import (
	"encoding/json"
	"sync"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/channel"
	"github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/pkg/messages"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Responder interface {
	Publish(queueName string, msg amqp.Publishing) error
	PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error)
	PublishSuccessHandshakeRespond(
		messageType, messageID, responseQueue string,
		languageSpecs []languages.LanguageSpec,
	)
	PublishSuccessStatusRespond(
		messageType, messageID, responseQueue string,
		status messages.ResponseWorkerStatusPayload,
	)
	PublishPayloadTaskRespond(messageType, messageID, responseQueue string, payload interface{})
	Close() error
}

type publishRequest struct {
	queueName string
	msg       amqp.Publishing
	result    chan error
}

// responder serializes all publishes on one goroutine, since an amqp channel
// must not be used concurrently.
type responder struct {
	logger      *zap.SugaredLogger
	channel     channel.Channel
	publishChan chan publishRequest
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
}

func NewResponder(ch channel.Channel, chanSize int) Responder {
	r := &responder{
		logger:      logger.NewNamedLogger("responder"),
		channel:     ch,
		publishChan: make(chan publishRequest, chanSize),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go r.publishLoop()
	return r
}

func (r *responder) publishLoop() {
	defer close(r.stopped)
	for {
		select {
		case req := <-r.publishChan:
			req.result <- r.channel.Publish("", req.queueName, false, false, req.msg)
		case <-r.done:
			r.drain()
			return
		}
	}
}

// drain fails every request still buffered after Close.
func (r *responder) drain() {
	for {
		select {
		case req := <-r.publishChan:
			req.result <- errors.ErrResponderClosed
		default:
			return
		}
	}
}

func (r *responder) Publish(queueName string, msg amqp.Publishing) error {
	select {
	case <-r.done:
		return errors.ErrResponderClosed
	default:
	}

	req := publishRequest{queueName: queueName, msg: msg, result: make(chan error, 1)}
	select {
	case r.publishChan <- req:
	case <-r.done:
		return errors.ErrResponderClosed
	}

	select {
	case err := <-req.result:
		return err
	case <-r.stopped:
		select {
		case err := <-req.result:
			return err
		default:
			return errors.ErrResponderClosed
		}
	}
}

func (r *responder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	<-r.stopped
	return nil
}

func (r *responder) PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error) {
	payload, jsonErr := json.Marshal(messages.ResponseErrorPayload{Error: err.Error()})
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal error payload: %s [MsgID: %s]", jsonErr, messageID)
		return
	}

	if pubErr := r.publishRespondMessage(messageType, messageID, responseQueue, false, payload); pubErr != nil {
		r.logger.Errorf("Failed to publish error message: %s [MsgID: %s]", pubErr, messageID)
		return
	}

	r.logger.Infof("Published error message to response queue %s [MsgID: %s]", responseQueue, messageID)
}

func (r *responder) PublishSuccessHandshakeRespond(
	messageType, messageID, responseQueue string,
	languageSpecs []languages.LanguageSpec,
) {
	r.publishPayload(messageType, messageID, responseQueue, messages.ResponseHandshakePayload{Languages: languageSpecs})
}

func (r *responder) PublishSuccessStatusRespond(
	messageType, messageID, responseQueue string,
	status messages.ResponseWorkerStatusPayload,
) {
	r.publishPayload(messageType, messageID, responseQueue, status)
}

func (r *responder) PublishPayloadTaskRespond(messageType, messageID, responseQueue string, payload interface{}) {
	r.publishPayload(messageType, messageID, responseQueue, payload)
}

func (r *responder) publishPayload(messageType, messageID, responseQueue string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Errorf("Failed to marshal %s payload: %s [MsgID: %s]", messageType, err, messageID)
		r.PublishErrorToResponseQueue(messageType, messageID, responseQueue, err)
		return
	}

	if err := r.publishRespondMessage(messageType, messageID, responseQueue, true, body); err != nil {
		r.logger.Errorf("Failed to publish %s response: %s [MsgID: %s]", messageType, err, messageID)
		return
	}

	r.logger.Infof("Published %s response to %s [MsgID: %s]", messageType, responseQueue, messageID)
}

func (r *responder) publishRespondMessage(
	messageType, messageID, responseQueue string,
	ok bool,
	payload []byte,
) error {
	queueMessage := messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        ok,
		Payload:   payload,
	}

	responseJSON, err := json.Marshal(queueMessage)
	if err != nil {
		return err
	}

	return r.Publish(responseQueue, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	})
}
