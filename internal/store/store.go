package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/paulmach/orb/geojson"

	"agrotech/diagnosis/internal/model"
	"agrotech/diagnosis/pkg/errorutil"
)

// Run status values
const (
	RunStatusDiagnosed = "DIAGNOSED"
	RunStatusFailed    = "FAILED"
)

// ParcelEntity parcels table row
type ParcelEntity struct {
	ID              string         `gorm:"column:id;primaryKey"`
	Name            string         `gorm:"column:name"`
	Geometry        datatypes.JSON `gorm:"column:geometry"` // GeoJSON geometry
	AreaHa          float64        `gorm:"column:area_ha"`
	CropType        string         `gorm:"column:crop_type"`
	ExternalFieldID string         `gorm:"column:external_field_id"`
}

// TableName gorm table mapping
func (ParcelEntity) TableName() string { return "parcels" }

// DiagnosisRun diagnosis_runs table row
type DiagnosisRun struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	ParcelID     string         `gorm:"column:parcel_id;index"`
	Window       string         `gorm:"column:window"`
	Fingerprint  string         `gorm:"column:fingerprint"`
	Status       string         `gorm:"column:status"` // DIAGNOSED/FAILED
	Result       datatypes.JSON `gorm:"column:result"` // KPI snapshot
	ErrorMessage string         `gorm:"column:error_message"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

// TableName gorm table mapping
func (DiagnosisRun) TableName() string { return "diagnosis_runs" }

// DAO diagnosis data access object
type DAO struct {
	db *gorm.DB
}

// NewDAO opens the MySQL connection
func NewDAO(dsn string) (*DAO, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DAO{db: db}, nil
}

// GetParcel loads a parcel row and decodes its geometry
// (implements sources.ParcelCatalog)
func (dao *DAO) GetParcel(ctx context.Context, id string) (*model.Parcel, error) {
	var ent ParcelEntity
	result := dao.db.WithContext(ctx).Where("id = ?", id).First(&ent)
	if result.Error != nil {
		return nil, errorutil.Newf(errorutil.KindInputUnavailable,
			"parcel lookup failed: %v", result.Error).WithDetail("parcel_id", id)
	}

	geom, err := geojson.UnmarshalGeometry(ent.Geometry)
	if err != nil {
		return nil, errorutil.Newf(errorutil.KindGeometryMismatch,
			"parcel geometry invalid: %v", err).WithDetail("parcel_id", id)
	}

	crop := ent.CropType
	if crop == "" {
		crop = "general"
	}
	return &model.Parcel{
		ID:              ent.ID,
		Name:            ent.Name,
		Geometry:        geom,
		AreaHa:          ent.AreaHa,
		CropType:        crop,
		ExternalFieldID: ent.ExternalFieldID,
	}, nil
}

// RecordRun persists the outcome of one diagnosis
func (dao *DAO) RecordRun(
	ctx context.Context,
	parcelID, window, fingerprint, status string,
	kpis *model.KPISet,
	errorMsg string,
) error {
	run := DiagnosisRun{
		ParcelID:     parcelID,
		Window:       window,
		Fingerprint:  fingerprint,
		Status:       status,
		ErrorMessage: errorMsg,
		CreatedAt:    time.Now(),
	}
	if kpis != nil {
		data, err := json.Marshal(kpis)
		if err != nil {
			return fmt.Errorf("failed to marshal kpis: %w", err)
		}
		run.Result = data
	}

	if err := dao.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("failed to record diagnosis run: %w", err)
	}
	return nil
}

// Close closes the database connection
func (dao *DAO) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
