package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"agrotech/diagnosis/internal/domains/common"
	"agrotech/diagnosis/internal/domains/common/job"
	"agrotech/diagnosis/internal/domains/common/response"
	"agrotech/diagnosis/internal/framework"
	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/internal/pipeline"
	"agrotech/diagnosis/internal/store"
	"agrotech/diagnosis/pkg/infra/redis"
)

// DiagnoseHandler runs one parcel diagnosis job
type DiagnoseHandler struct {
	ctx    context.Context
	meta   *job.Meta
	deps   *common.Deps
	params model.ParcelDiagnoseBusinessData
	window model.Window
	outDir string

	bundle *model.DiagnosisBundle
	runErr error
}

// NewDiagnoseHandler parses and validates the job parameters
func NewDiagnoseHandler(ctx context.Context, meta *job.Meta, payload interface{}, deps *common.Deps) (common.HandlerServ, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}

	var params model.ParcelDiagnoseBusinessData
	if err := json.Unmarshal(payloadBytes, &params); err != nil {
		return nil, fmt.Errorf("unmarshal business data failed: %w", err)
	}

	if params.ParcelID == "" {
		return nil, fmt.Errorf("parcel_id is required")
	}
	window, err := model.ParseWindow(params.Window)
	if err != nil {
		return nil, fmt.Errorf("invalid window: %w", err)
	}

	outDir := params.OutDir
	if outDir == "" {
		outDir = filepath.Join("out", params.ParcelID, strings.ReplaceAll(params.Window, ":", "_"))
	}

	return &DiagnoseHandler{
		ctx:    ctx,
		meta:   meta,
		deps:   deps,
		params: params,
		window: window,
		outDir: outDir,
	}, nil
}

// GetProcess runs the diagnosis and wraps the unified response
func (h *DiagnoseHandler) GetProcess() *response.Response {
	result := response.NewDiagnosisResult()
	result.ParcelID = h.params.ParcelID
	result.Window = h.params.Window

	chain := framework.NewPreProcessor([]framework.ProcessorFunc{
		h.diagnose,
		h.record,
		h.notify,
		h.callback,
	})
	if err := chain.Run(h.ctx); err != nil {
		h.deps.Log.Errorf(h.ctx, "[DiagnoseHandler] chain failed: %v", err)
	}

	if h.bundle != nil {
		result.Fingerprint = h.bundle.Fingerprint
		result.KPIs = &h.bundle.KPIs
	}

	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, h.runErr)
	return resp
}

// diagnose runs the pipeline; a failure is captured so the follow-up
// steps still record and report it
func (h *DiagnoseHandler) diagnose(ctx context.Context) error {
	h.bundle, h.runErr = h.deps.Pipeline.Run(ctx, h.params.ParcelID, h.window, h.outDir)
	if h.runErr != nil {
		h.deps.Log.Errorf(ctx, "[DiagnoseHandler] diagnosis failed: %v", h.runErr)
		if err := pipeline.WriteErrorRecord(h.outDir, h.params.ParcelID, h.window, h.runErr); err != nil {
			h.deps.Log.Warnf(ctx, "[DiagnoseHandler] error record not written: %v", err)
		}
	}
	return nil
}

// record persists the run outcome; best effort
func (h *DiagnoseHandler) record(ctx context.Context) error {
	if h.deps.Recorder == nil {
		return nil
	}

	status := store.RunStatusDiagnosed
	fingerprint := ""
	var kpis *model.KPISet
	errMsg := ""
	if h.runErr != nil {
		status = store.RunStatusFailed
		errMsg = h.runErr.Error()
	} else {
		fingerprint = h.bundle.Fingerprint
		kpis = &h.bundle.KPIs
	}

	if err := h.deps.Recorder.RecordRun(ctx, h.params.ParcelID, h.params.Window,
		fingerprint, status, kpis, errMsg); err != nil {
		h.deps.Log.Warnf(ctx, "[DiagnoseHandler] run not recorded: %v", err)
	}
	return nil
}

// notify publishes the completion event; best effort
func (h *DiagnoseHandler) notify(ctx context.Context) error {
	if h.deps.Notifier == nil {
		return nil
	}

	n := &redis.DiagnosisNotification{
		ParcelID:  h.params.ParcelID,
		Status:    store.RunStatusDiagnosed,
		Timestamp: time.Now().Unix(),
	}
	if h.runErr != nil {
		n.Status = store.RunStatusFailed
	} else {
		n.Fingerprint = h.bundle.Fingerprint
	}

	if err := h.deps.Notifier.PublishDiagnosisComplete(ctx, h.deps.NotifyChannel, n); err != nil {
		h.deps.Log.Warnf(ctx, "[DiagnoseHandler] completion not published: %v", err)
	}
	return nil
}

// callback pushes the outcome to the callback queue; best effort
func (h *DiagnoseHandler) callback(ctx context.Context) error {
	if h.deps.Queue == nil || h.deps.CallbackQueue == "" {
		return nil
	}

	cb := model.ParcelDiagnoseCallback{
		RequestID:   h.meta.RequestID,
		ParcelID:    h.params.ParcelID,
		Window:      h.params.Window,
		Status:      model.CallbackStatusSuccess,
		ProcessedAt: time.Now().Unix(),
	}
	if h.runErr != nil {
		cb.Status = model.CallbackStatusFailed
		cb.Error = h.runErr.Error()
	} else {
		cb.Fingerprint = h.bundle.Fingerprint
		cb.KPIs = &h.bundle.KPIs
	}

	data, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("marshal callback failed: %w", err)
	}
	if err := h.deps.Queue.Publish(h.deps.CallbackQueue, data, 0, 0); err != nil {
		h.deps.Log.Warnf(ctx, "[DiagnoseHandler] callback not published: %v", err)
	}
	return nil
}
