package models

import "time"

// AlertLevel ranks alerts by urgency.
type AlertLevel string

const (
	AlertError   AlertLevel = "error"
	AlertWarning AlertLevel = "warning"
	AlertInfo    AlertLevel = "info"
)

// Alert is a user-facing reminder about an upcoming or missed payment.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Date    time.Time  `json:"date"`
	Message string     `json:"message"`
}
