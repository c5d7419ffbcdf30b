package framework

// Message in-flight queue message
type Message struct {
	ID       string                 // message id
	Queue    string                 // queue name
	Data     []byte                 // raw job payload
	Attempts int                    // delivery attempts so far
	Extra    map[string]interface{} // adapter-specific fields
}

// Job outcome actions
const (
	ActionAck   = "ack"   // done, remove from queue
	ActionDrop  = "drop"  // permanent failure, remove from queue
	ActionRetry = "retry" // transient failure, leave for redelivery after TTR
)

// JobResult outcome of one handled message
type JobResult struct {
	Action string // ack/drop/retry
	Data   []byte // serialized response
}
