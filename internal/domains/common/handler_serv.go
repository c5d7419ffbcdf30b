package common

import (
	"context"

	"agrotech/diagnosis/internal/domains/common/response"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/internal/pipeline"
	"agrotech/diagnosis/pkg/infra/redis"
	"agrotech/diagnosis/pkg/logger"
)

// RunRecorder persists diagnosis outcomes (MySQL-backed in the worker)
type RunRecorder interface {
	RecordRun(ctx context.Context, parcelID, window, fingerprint, status string,
		kpis *model.KPISet, errorMsg string) error
}

// CompletionNotifier broadcasts completion events
type CompletionNotifier interface {
	PublishDiagnosisComplete(ctx context.Context, channel string,
		notification *redis.DiagnosisNotification) error
}

// Publisher pushes callback messages onto a queue
type Publisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// Deps collaborators injected into every handler. Recorder and
// Notifier are nil when MySQL or Redis are not configured.
type Deps struct {
	Log           logger.Logger
	Pipeline      *pipeline.Pipeline
	Recorder      RunRecorder
	Notifier      CompletionNotifier
	NotifyChannel string
	Queue         Publisher
	CallbackQueue string
}

// HandlerServ business handler boundary
type HandlerServ interface {
	GetProcess() *response.Response
}
