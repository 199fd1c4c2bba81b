// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rovshanmuradov/dlmm-bot/internal/monitor"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format      ExportFormat
	OnlySuccess bool // только успешные ребалансировки
	OutputDir   string
}

// SessionExporter пишет отчет по завершенной сессии
type SessionExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewSessionExporter(logger *zap.Logger) *SessionExporter {
	return &SessionExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// SessionReport - JSON-представление сводки. Ошибки хранятся строками.
type SessionReport struct {
	ExportTime         time.Time                `json:"export_time"`
	Pool               string                   `json:"pool"`
	PositionID         string                   `json:"position_id"`
	PositionClosed     bool                     `json:"position_closed"`
	Reason             string                   `json:"reason"`
	Error              string                   `json:"error,omitempty"`
	StartedAt          time.Time                `json:"started_at"`
	EndedAt            time.Time                `json:"ended_at"`
	DurationSeconds    float64                  `json:"duration_seconds"`
	RebalanceCount     int                      `json:"rebalance_count"`
	InitialDepositUSD  float64                  `json:"initial_deposit_usd"`
	BaselineUSD        float64                  `json:"baseline_usd"`
	FinalValueUSD      float64                  `json:"final_value_usd"`
	ClaimedFeesUSD     float64                  `json:"claimed_fees_usd"`
	CompoundedFeesUSD  float64                  `json:"compounded_fees_usd"`
	SessionPnL         float64                  `json:"session_pnl_usd"`
	SessionPnLPercent  float64                  `json:"session_pnl_percent"`
	LifetimePnL        float64                  `json:"lifetime_pnl_usd"`
	LifetimePnLPercent float64                  `json:"lifetime_pnl_percent"`
	Reserve            reserve.Ledger           `json:"reserve"`
	ExitSwapSignature  string                   `json:"exit_swap_signature,omitempty"`
	ExitSwapError      string                   `json:"exit_swap_error,omitempty"`
	Events             []monitor.RebalanceEvent `json:"events"`
}

// ExportSession пишет отчет в OutputDir и возвращает путь к файлу
func (e *SessionExporter) ExportSession(s *monitor.Summary, options ExportOptions) (string, error) {
	if s == nil {
		return "", fmt.Errorf("no session summary to export")
	}

	events := filterEvents(s.Events, options)
	sort.Slice(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, e.generateFilename(s, options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = exportToCSV(events, outputPath)
	case FormatJSON:
		err = exportToJSON(e.buildReport(s, events), outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("📁 Session report exported",
		zap.String("file", outputPath),
		zap.Int("events", len(events)),
		zap.String("format", string(options.Format)))
	return outputPath, nil
}

func filterEvents(events []monitor.RebalanceEvent, options ExportOptions) []monitor.RebalanceEvent {
	filtered := make([]monitor.RebalanceEvent, 0, len(events))
	for _, ev := range events {
		if options.OnlySuccess && !ev.Success {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered
}

func (e *SessionExporter) generateFilename(s *monitor.Summary, options ExportOptions) string {
	timestamp := e.now().Format("20060102_150405")
	pool := s.Pool
	if len(pool) > 8 {
		pool = pool[:8]
	}
	return fmt.Sprintf("session_%s_%s.%s", pool, timestamp, options.Format)
}

func (e *SessionExporter) buildReport(s *monitor.Summary, events []monitor.RebalanceEvent) SessionReport {
	r := SessionReport{
		ExportTime:         e.now(),
		Pool:               s.Pool,
		PositionID:         s.PositionID,
		PositionClosed:     s.PositionClosed,
		Reason:             s.Reason,
		StartedAt:          s.StartedAt,
		EndedAt:            s.EndedAt,
		DurationSeconds:    s.Duration().Seconds(),
		RebalanceCount:     s.RebalanceCount,
		InitialDepositUSD:  s.InitialDepositUSD,
		BaselineUSD:        s.BaselineUSD,
		FinalValueUSD:      s.FinalValueUSD,
		ClaimedFeesUSD:     s.ClaimedFeesUSD,
		CompoundedFeesUSD:  s.CompoundedFeesUSD,
		SessionPnL:         s.SessionPnL,
		SessionPnLPercent:  s.SessionPnLPercent,
		LifetimePnL:        s.LifetimePnL,
		LifetimePnLPercent: s.LifetimePnLPercent,
		Reserve:            s.Reserve,
		ExitSwapSignature:  s.ExitSwapSignature,
		Events:             events,
	}
	if s.Err != nil {
		r.Error = s.Err.Error()
	}
	if s.ExitSwapErr != nil {
		r.ExitSwapError = s.ExitSwapErr.Error()
	}
	return r
}

// CSVHeaders returns the column order used by eventRecord
func CSVHeaders() []string {
	return []string{
		"id", "time", "direction", "old_position", "new_position",
		"min_bin", "max_bin", "fees_realized_usd", "new_baseline_usd", "success", "error",
	}
}

func eventRecord(ev monitor.RebalanceEvent) []string {
	return []string{
		ev.ID,
		ev.At.UTC().Format(time.RFC3339),
		ev.Direction.String(),
		ev.OldPositionID,
		ev.NewPositionID,
		strconv.Itoa(int(ev.MinBin)),
		strconv.Itoa(int(ev.MaxBin)),
		strconv.FormatFloat(ev.FeesRealizedUSD, 'f', 4, 64),
		strconv.FormatFloat(ev.NewBaselineUSD, 'f', 4, 64),
		strconv.FormatBool(ev.Success),
		ev.Err,
	}
}

func exportToCSV(events []monitor.RebalanceEvent, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, ev := range events {
		if err := writer.Write(eventRecord(ev)); err != nil {
			return fmt.Errorf("failed to write event %s: %w", ev.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func exportToJSON(report SessionReport, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
