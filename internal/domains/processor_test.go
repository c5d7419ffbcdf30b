package domains

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrotech/diagnosis/internal/domains/common"
	"agrotech/diagnosis/internal/domains/common/response"
	"agrotech/diagnosis/internal/framework"
	"agrotech/diagnosis/pkg/errorutil"
)

// nopLogger discards everything
type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Sync() error                                                    { return nil }

func runProc(t *testing.T, body string) *framework.JobResult {
	t.Helper()
	proc := GetProcess(nopLogger{}, &common.Deps{Log: nopLogger{}})
	result := proc(context.Background(), &framework.Message{ID: "m1", Data: []byte(body)})
	require.NotNil(t, result)
	return result
}

func TestGetProcessDropsMalformedJSON(t *testing.T) {
	result := runProc(t, `{"payload": `)
	assert.Equal(t, framework.ActionDrop, result.Action)
}

func TestGetProcessDropsMissingPayloadData(t *testing.T) {
	result := runProc(t, `{"payload": {}}`)
	assert.Equal(t, framework.ActionDrop, result.Action)
}

func TestGetProcessDropsUnknownActionType(t *testing.T) {
	body := `{"payload":{"data":{"request_id":"r1","action_type":"parcel_delete","id":"p1","data":{}}}}`
	result := runProc(t, body)
	assert.Equal(t, framework.ActionDrop, result.Action)
}

func TestGetProcessDropsInvalidHandlerParams(t *testing.T) {
	// routed to the diagnose handler, which rejects the missing window
	body := `{"payload":{"data":{"request_id":"r1","action_type":"parcel_diagnose","id":"p1","data":{"parcel_id":"p1"}}}}`
	result := runProc(t, body)
	assert.Equal(t, framework.ActionDrop, result.Action)
}

func TestSettleActions(t *testing.T) {
	ctx := context.Background()

	ok := &response.Response{Processed: true}
	assert.Equal(t, framework.ActionAck, settle(ctx, ok, nopLogger{}).Action)

	retryable := &response.Response{
		Error: errorutil.New(errorutil.KindInputUnavailable, "imagery offline"),
	}
	assert.Equal(t, framework.ActionRetry, settle(ctx, retryable, nopLogger{}).Action)

	terminal := &response.Response{
		Error: errorutil.New(errorutil.KindInsufficientCoverage, "too few pixels"),
	}
	result := settle(ctx, terminal, nopLogger{})
	assert.Equal(t, framework.ActionDrop, result.Action)
	assert.NotEmpty(t, result.Data) // response travels with the drop
}
