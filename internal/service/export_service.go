package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/pkg/export"
	"github.com/tripdesk/tour-booking-api/pkg/storage"
)

type exportRegistrationSource interface {
	List(ctx context.Context) ([]models.Registration, error)
}

type exportTransactionSource interface {
	ListAll(ctx context.Context) ([]models.Transaction, error)
}

type exportExpenseSource interface {
	List(ctx context.Context) ([]models.Expense, error)
	Total(ctx context.Context) (decimal.Decimal, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	registrations exportRegistrationSource
	transactions  exportTransactionSource
	expenses      exportExpenseSource
	storage       fileStorage
	csv           csvRenderer
	pdf           pdfRenderer
	signer        *storage.SignedURLSigner
	logger        *zap.Logger
	cfg           ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(registrations exportRegistrationSource, transactions exportTransactionSource, expenses exportExpenseSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		registrations: registrations,
		transactions:  transactions,
		expenses:      expenses,
		storage:       store,
		csv:           csv,
		pdf:           pdf,
		signer:        signer,
		logger:        logger,
		cfg:           cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, job.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeRegistrations:
		return s.buildRegistrationDataset(ctx)
	case models.ReportTypeTransactions:
		return s.buildTransactionDataset(ctx)
	case models.ReportTypeExpenses:
		return s.buildExpenseDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildRegistrationDataset(ctx context.Context) (export.Dataset, string, error) {
	registrations, err := s.registrations.List(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(registrations))
	for _, reg := range registrations {
		rows = append(rows, map[string]string{
			"Name":      reg.Name,
			"Phone":     reg.Phone,
			"Tour Date": reg.TourDate.UTC().Format("2006-01-02"),
			"Status":    string(reg.Status),
			"Total":     reg.TotalAmount.StringFixed(2),
			"Paid":      reg.PaidAmount.StringFixed(2),
			"Due":       reg.DueAmount.StringFixed(2),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Name", "Phone", "Tour Date", "Status", "Total", "Paid", "Due"},
		Rows:    rows,
	}
	return dataset, "Tour Registrations", nil
}

func (s *ExportService) buildTransactionDataset(ctx context.Context) (export.Dataset, string, error) {
	txns, err := s.transactions.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, map[string]string{
			"Registration": txn.RegistrationID,
			"Amount":       txn.Amount.StringFixed(2),
			"Method":       string(txn.PaymentMethod),
			"Status":       string(txn.Status),
			"Payment Date": txn.PaymentDate.UTC().Format("2006-01-02"),
			"Resolved At":  formatReportTime(txn.ResolvedAt),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Registration", "Amount", "Method", "Status", "Payment Date", "Resolved At"},
		Rows:    rows,
	}
	return dataset, "Payment Transactions", nil
}

func (s *ExportService) buildExpenseDataset(ctx context.Context) (export.Dataset, string, error) {
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	total, err := s.expenses.Total(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(expenses))
	for _, expense := range expenses {
		rows = append(rows, map[string]string{
			"Description": expense.Description,
			"Category":    string(expense.Category),
			"Amount":      expense.Amount.StringFixed(2),
			"Recorded At": expense.CreatedAt.UTC().Format("2006-01-02"),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Description", "Category", "Amount", "Recorded At"},
		Rows:    rows,
		Footer: map[string]string{
			"Description": "TOTAL",
			"Amount":      total.StringFixed(2),
		},
	}
	return dataset, "Expense Ledger", nil
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
