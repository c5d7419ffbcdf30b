package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agrotech/diagnosis/internal/domains/common"
	"agrotech/diagnosis/internal/domains/common/job"
	"agrotech/diagnosis/internal/domains/common/response"
	"agrotech/diagnosis/internal/framework"
	"agrotech/diagnosis/pkg/logger"
)

// GetProcess returns the per-message entrypoint injected into the
// Processor: parse the envelope, route by action_type, run the handler
// and map its response to a queue action.
func GetProcess(log logger.Logger, deps *common.Deps) framework.Proc {
	return func(ctx context.Context, msg *framework.Message) *framework.JobResult {
		startTime := time.Now()

		standardJob, meta, bizPayload, err := parseJob(ctx, msg, log)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] parseJob failed: %v", err)
			return &framework.JobResult{Action: framework.ActionDrop}
		}

		ctx = context.WithValue(ctx, "trace_id", meta.RequestID)
		ctx = context.WithValue(ctx, "action_type", meta.ActionType)
		ctx = context.WithValue(ctx, "parcel_id", meta.ID)

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, request_id=%s, id=%s",
			meta.ActionType, meta.RequestID, meta.ID)

		handlerFunc, ok := HandlerMap[standardJob.Payload.Data.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", meta.ActionType)
			return &framework.JobResult{Action: framework.ActionDrop}
		}

		var result *framework.JobResult
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
					result = &framework.JobResult{Action: framework.ActionDrop}
				}
			}()

			handler, err := handlerFunc(ctx, meta, bizPayload, deps)
			if err != nil {
				log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
				result = &framework.JobResult{Action: framework.ActionDrop}
				return
			}

			result = settle(ctx, handler.GetProcess(), log)
		}()

		duration := time.Since(startTime)
		log.Infof(ctx, "[GetProcess] Processing complete: action=%s, duration=%v", result.Action, duration)

		return result
	}
}

// parseJob decodes and validates the normalized envelope
func parseJob(ctx context.Context, msg *framework.Message, log logger.Logger) (*job.Job, *job.Meta, interface{}, error) {
	var standardJob job.Job
	if err := json.Unmarshal(msg.Data, &standardJob); err != nil {
		return nil, nil, nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if standardJob.Payload == nil || standardJob.Payload.Data == nil {
		return nil, nil, nil, fmt.Errorf("invalid job structure: payload.data is nil")
	}

	data := standardJob.Payload.Data

	meta := &job.Meta{
		RequestID:  data.RequestID,
		OrgID:      data.OrgID,
		ActionType: data.ActionType,
		ID:         data.ID,
	}

	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}

	log.Debugf(ctx, "[parseJob] Parsed: action_type=%s, request_id=%s, id=%s",
		meta.ActionType, meta.RequestID, meta.ID)

	return &standardJob, meta, data.Data, nil
}

// settle maps the handler response to a queue action: success acks,
// retryable failures redeliver, the rest are dropped with the response
// attached.
func settle(ctx context.Context, resp *response.Response, log logger.Logger) *framework.JobResult {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Errorf(ctx, "[settle] marshal response failed: %v", err)
		return &framework.JobResult{Action: framework.ActionDrop}
	}

	if resp.Processed {
		return &framework.JobResult{Action: framework.ActionAck, Data: data}
	}

	if resp.Error != nil && resp.Error.Retryable {
		return &framework.JobResult{Action: framework.ActionRetry, Data: data}
	}
	return &framework.JobResult{Action: framework.ActionDrop, Data: data}
}
