package job

// Job normalized job envelope
type Job struct {
	Payload *JobPayload `json:"payload"`
}

// JobPayload job payload
type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

// JobPayloadData job data layer
type JobPayloadData struct {
	RequestID  string `json:"request_id"`  // request id (trace id)
	OrgID      string `json:"org_id"`      // organisation id
	ActionType string `json:"action_type"` // routing key
	ID         string `json:"id"`          // business id (parcel id)

	Data interface{} `json:"data"` // handler-specific parameters

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Meta envelope metadata
type Meta struct {
	RequestID  string
	OrgID      string
	ActionType string
	ID         string
}
