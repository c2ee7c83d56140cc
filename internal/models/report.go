package models

import "time"

// TickerReport is the cached work product: one completed report per
// (ticker, report date). Reports are immutable once stored and are
// never deleted by this service.
type TickerReport struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	ReportDate  string    `json:"report_date"` // business date, "2006-01-02"
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ReportDateKey formats a business date as the report partition key.
func ReportDateKey(date time.Time) string {
	return date.Format("2006-01-02")
}
