package domains

import (
	"context"

	"agrotech/diagnosis/internal/domains/common"
	"agrotech/diagnosis/internal/domains/common/job"
	"agrotech/diagnosis/internal/domains/handlers/parcel/diagnose"
)

// HandlerFactory handler constructor type
type HandlerFactory func(
	ctx context.Context,
	meta *job.Meta,
	payload interface{},
	deps *common.Deps,
) (common.HandlerServ, error)

// HandlerMap routing table (action_type -> handler)
var HandlerMap = map[string]HandlerFactory{
	"parcel_diagnose": diagnose.NewDiagnoseHandler,
}
