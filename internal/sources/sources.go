package sources

import (
	"context"

	"agrotech/diagnosis/internal/model"
)

// AcquisitionSet frozen imagery inputs for one diagnosis
type AcquisitionSet struct {
	Acquisitions    []model.Acquisition
	Rasters         map[string]map[string]string // view_id -> index -> raster path
	HasPriorHistory bool                         // acquisitions exist before the window
}

// AcquisitionSource imagery collaborator boundary
type AcquisitionSource interface {
	Load(ctx context.Context, parcelID string, window model.Window) (*AcquisitionSet, error)
}

// ClimateSource climate collaborator boundary
type ClimateSource interface {
	Load(ctx context.Context, parcelID string, window model.Window) ([]model.ClimateRecord, error)
}

// ParcelCatalog parcel lookup boundary; backed by MySQL in the worker
// and by a GeoJSON file in the batch CLI.
type ParcelCatalog interface {
	GetParcel(ctx context.Context, id string) (*model.Parcel, error)
}
