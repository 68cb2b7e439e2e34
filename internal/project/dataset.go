package project

import "time"

// Dataset records one profiled source attached to a project. Reports live
// under the project's reports/ directory; paths here are relative to it.
type Dataset struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Rows           int       `json:"rows"`
	Cols           int       `json:"cols"`
	HasNumericData bool      `json:"has_numeric_data"`
	ReportFile     string    `json:"report_file"`
	SummaryFile    string    `json:"summary_file"`
	AddedAt        time.Time `json:"added_at"`
}
