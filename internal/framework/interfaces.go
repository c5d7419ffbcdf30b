package framework

import (
	"context"
	"time"
)

// MessageSource message source boundary (adapts different queues)
type MessageSource interface {
	// Consume pulls one message, blocking until a message arrives or the
	// timeout elapses. A nil message means the timeout hit.
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	// Ack confirms a message, removing it from the queue
	Ack(queue string, jobID string) error
}

// Logger logging boundary
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

// Proc business entrypoint invoked per message
type Proc func(ctx context.Context, msg *Message) *JobResult

// ProcessorFunc one step of a PreProcessor chain
type ProcessorFunc func(ctx context.Context) error
