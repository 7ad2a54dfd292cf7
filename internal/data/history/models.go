package history

import "time"

const SchemaVersion = 1

// Run is the persisted summary of one lint invocation.
type Run struct {
	ID              string    `json:"id"`
	SchemaVersion   int       `json:"schema_version"`
	Timestamp       time.Time `json:"timestamp"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp,omitempty"`
	Revision        string    `json:"revision,omitempty"`
	FileCount       int       `json:"file_count"`
	DefectFileCount int       `json:"defect_file_count"`
	FailedCount     int       `json:"failed_count"`
	ErrorCount      int       `json:"error_count"`
	WarningCount    int       `json:"warning_count"`
	NoticeCount     int       `json:"notice_count"`
}

func (r Run) DefectCount() int {
	return r.ErrorCount + r.WarningCount + r.NoticeCount
}

type TrendPoint struct {
	RunID         string    `json:"run_id"`
	Timestamp     time.Time `json:"timestamp"`
	CommitHash    string    `json:"commit_hash,omitempty"`
	FileCount     int       `json:"file_count"`
	ErrorCount    int       `json:"error_count"`
	WarningCount  int       `json:"warning_count"`
	NoticeCount   int       `json:"notice_count"`
	DeltaErrors   int       `json:"delta_errors"`
	DeltaWarnings int       `json:"delta_warnings"`
	DeltaNotices  int       `json:"delta_notices"`
	AvgErrors     float64   `json:"avg_errors"`
	AvgWarnings   float64   `json:"avg_warnings"`
	WindowHours   float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}

// Latest returns the newest point, if any.
func (r TrendReport) Latest() (TrendPoint, bool) {
	if len(r.Points) == 0 {
		return TrendPoint{}, false
	}
	return r.Points[len(r.Points)-1], true
}
