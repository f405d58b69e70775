package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-pasar/internal/common"
)

// TaskTypeExport is the asynq task type for background report exports.
const TaskTypeExport = "report:export"

// ExportTaskPayload describes a queued export: which report to run and the
// already-normalized criteria, serialized per domain.
type ExportTaskPayload struct {
	ExportID    string          `json:"exportId"`
	Report      string          `json:"report"`
	Criteria    json.RawMessage `json:"criteria"`
	RequestedBy string          `json:"requestedBy,omitempty"`
	RequestedAt time.Time       `json:"requestedAt"`
}

// Enqueuer hands oversized exports to the background worker.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// EnqueueExport queues a background export and returns its identifier.
func (e Enqueuer) EnqueueExport(ctx context.Context, report string, criteria any, requestedBy string) (string, error) {
	if e.Client == nil {
		return "", common.NewAppError("EXPORT_QUEUE_UNAVAILABLE", "export queue not configured", http.StatusServiceUnavailable, nil)
	}
	raw, err := json.Marshal(criteria)
	if err != nil {
		return "", fmt.Errorf("encode export criteria: %w", err)
	}
	payload := ExportTaskPayload{
		ExportID:    uuid.NewString(),
		Report:      report,
		Criteria:    raw,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode export task: %w", err)
	}
	queue := e.Queue
	if queue == "" {
		queue = "exports"
	}
	task := asynq.NewTask(TaskTypeExport, body, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute))
	if _, err := e.Client.EnqueueContext(ctx, task, asynq.Queue(queue)); err != nil {
		return "", common.NewAppError("EXPORT_QUEUE_UNAVAILABLE", "export queue unavailable", http.StatusServiceUnavailable, err)
	}
	return payload.ExportID, nil
}

// ExportSink receives finished export files, keyed by export id.
type ExportSink interface {
	Put(ctx context.Context, exportID, filename string) (io.WriteCloser, error)
}

// Worker executes queued exports against the report service.
type Worker struct {
	Svc  *Service
	Sink ExportSink
}

// HandleExportTask runs one queued export end to end: decode criteria, run the
// capped export, stream CSV into the sink.
func (w Worker) HandleExportTask(ctx context.Context, task *asynq.Task) error {
	if w.Svc == nil || w.Sink == nil {
		return fmt.Errorf("export worker not configured")
	}
	var payload ExportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode export task: %w", err)
	}
	out, err := w.Sink.Put(ctx, payload.ExportID, payload.Report+".csv")
	if err != nil {
		return fmt.Errorf("open export sink: %w", err)
	}
	defer func() { _ = out.Close() }()

	switch payload.Report {
	case "orders":
		var criteria OrderCriteria
		if err := json.Unmarshal(payload.Criteria, &criteria); err != nil {
			return fmt.Errorf("decode order criteria: %w", err)
		}
		result, err := w.Svc.OrdersExport(ctx, criteria)
		if err != nil {
			return err
		}
		return WriteOrdersCSV(out, result.Rows)
	case "payouts":
		var criteria PayoutCriteria
		if err := json.Unmarshal(payload.Criteria, &criteria); err != nil {
			return fmt.Errorf("decode payout criteria: %w", err)
		}
		result, err := w.Svc.PayoutsExport(ctx, criteria)
		if err != nil {
			return err
		}
		return WritePayoutsCSV(out, result.Rows)
	case "audit":
		var criteria AuditCriteria
		if err := json.Unmarshal(payload.Criteria, &criteria); err != nil {
			return fmt.Errorf("decode audit criteria: %w", err)
		}
		result, err := w.Svc.AuditExport(ctx, criteria)
		if err != nil {
			return err
		}
		return WriteAuditCSV(out, result.Rows)
	case "returns":
		var criteria ReturnCriteria
		if err := json.Unmarshal(payload.Criteria, &criteria); err != nil {
			return fmt.Errorf("decode return criteria: %w", err)
		}
		result, err := w.Svc.ReturnsExport(ctx, criteria)
		if err != nil {
			return err
		}
		return WriteReturnsCSV(out, result.Rows)
	default:
		return fmt.Errorf("unknown report %q: %w", payload.Report, asynq.SkipRetry)
	}
}

// WriteOrdersCSV streams order rows as CSV.
func WriteOrdersCSV(w io.Writer, rows []OrderRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"orderId", "sellerId", "buyerName", "status", "paymentStatus", "gross", "commission", "net", "createdAt"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.OrderID,
			row.SellerID,
			row.BuyerName,
			row.Status,
			row.PaymentStatus,
			strconv.FormatInt(row.Gross, 10),
			strconv.FormatInt(row.Commission, 10),
			strconv.FormatInt(row.Net, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePayoutsCSV streams payout rows as CSV.
func WritePayoutsCSV(w io.Writer, rows []PayoutRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"payoutId", "sellerId", "status", "amount", "fee", "net", "createdAt"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.PayoutID,
			row.SellerID,
			row.Status,
			strconv.FormatInt(row.Amount, 10),
			strconv.FormatInt(row.Fee, 10),
			strconv.FormatInt(row.Net, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAuditCSV streams audit rows as CSV.
func WriteAuditCSV(w io.Writer, rows []AuditRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"entryId", "actorId", "action", "targetKind", "targetId", "success", "detail", "createdAt"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.EntryID,
			row.ActorID,
			row.Action,
			row.TargetKind,
			row.TargetID,
			strconv.FormatBool(row.Success),
			row.Detail,
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReturnsCSV streams return case rows as CSV.
func WriteReturnsCSV(w io.Writer, rows []ReturnRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"caseId", "orderId", "sellerId", "status", "reason", "refundAmount", "createdAt"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.CaseID,
			row.OrderID,
			row.SellerID,
			row.Status,
			row.Reason,
			strconv.FormatInt(row.RefundAmount, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
