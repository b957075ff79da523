package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/db"
)

// ReportRepository provides data access for abuse reports.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new repository bound to the given DB connection.
func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create files a report with status pending.
func (r *ReportRepository) Create(ctx context.Context, reporterID, reportedID, reason string) (db.Report, error) {
	report := db.Report{
		ID:         uuid.NewString(),
		ReporterID: reporterID,
		ReportedID: reportedID,
		Reason:     reason,
		Status:     db.ReportPending,
		Timestamp:  time.Now().UnixMilli(),
	}
	err := r.db.WithContext(ctx).Create(&report).Error
	return report, err
}

// ListByReporter returns reports filed by a user, newest first.
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID string) ([]db.Report, error) {
	var reports []db.Report
	err := r.db.WithContext(ctx).
		Where("reporter_id = ?", reporterID).
		Order("timestamp DESC").
		Find(&reports).Error
	return reports, err
}
