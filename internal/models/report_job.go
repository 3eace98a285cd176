package models

import "time"

// ReportType selects the dataset a report job renders.
type ReportType string

// Exportable datasets.
const (
	ReportTypeRegistrations ReportType = "registrations"
	ReportTypeTransactions  ReportType = "transactions"
	ReportTypeExpenses      ReportType = "expenses"
)

// Valid reports whether the type is a known enum value.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeRegistrations, ReportTypeTransactions, ReportTypeExpenses:
		return true
	}
	return false
}

// ReportFormat selects the rendered output format.
type ReportFormat string

// Supported output formats.
const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid reports whether the format is a known enum value.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportStatus tracks the job lifecycle.
type ReportStatus string

// Job lifecycle states.
const (
	ReportStatusQueued  ReportStatus = "QUEUED"
	ReportStatusRunning ReportStatus = "RUNNING"
	ReportStatusDone    ReportStatus = "DONE"
	ReportStatusFailed  ReportStatus = "FAILED"
)

// ReportJob is a persisted asynchronous export request.
type ReportJob struct {
	ID           string       `db:"id" json:"id"`
	Type         ReportType   `db:"type" json:"type"`
	Format       ReportFormat `db:"format" json:"format"`
	Status       ReportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	FilePath     *string      `db:"file_path" json:"-"`
	ErrorMessage *string      `db:"error_message" json:"errorMessage,omitempty"`
	CreatedBy    string       `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	StartedAt    *time.Time   `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`
}
