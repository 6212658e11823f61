package amqp

import (
	"encoding/json"
	"time"
)

// ReportSyncMessage represents a lightweight message for syncing a closed
// period report to the spreadsheet archive. It carries only identifiers; the
// worker fetches the full report from the database.
type ReportSyncMessage struct {
	ReportID  int64     `json:"report_id"`
	UserID    int64     `json:"user_id"`
	Period    string    `json:"period"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportSyncMessage creates a sync message for one closed period report
func NewReportSyncMessage(reportID, userID int64, period string) *ReportSyncMessage {
	return &ReportSyncMessage{
		ReportID:  reportID,
		UserID:    userID,
		Period:    period,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportSyncMessageFromJSON creates a message from JSON bytes
func ReportSyncMessageFromJSON(data []byte) (*ReportSyncMessage, error) {
	var msg ReportSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
