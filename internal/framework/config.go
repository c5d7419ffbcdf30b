package framework

import "time"

// SubscriberConfig subscriber tuning
type SubscriberConfig struct {
	QueueName    string        // queue name
	Concurrency  int           // concurrent pull goroutines
	Timeout      time.Duration // pull timeout
	TTR          time.Duration // time-to-run
	Rate         time.Duration // pull interval
	ErrorBackoff time.Duration // sleep after pull errors
}

// ProcessorConfig processor tuning
type ProcessorConfig struct {
	Concurrency int           // concurrent handler goroutines
	BufferSize  int           // inputChan buffer size
	Timeout     time.Duration // per-message handling timeout
}
