package models

import "time"

type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

type ExportStatus string

const (
	ExportStatusPending ExportStatus = "pending"
	ExportStatusReady   ExportStatus = "ready"
	ExportStatusFailed  ExportStatus = "failed"
)

type Export struct {
	ID          string
	FormID      string
	RequestedBy string
	Format      ExportFormat
	Status      ExportStatus
	ObjectKey   string
	SizeBytes   int64
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
