package model

import "time"

// Report type values.
var (
	ReportTypeSummary = "summary"
)

// TPOReport logs each statistics export, keeping the aggregated rows as JSON
// so past reports stay readable after the jobs they covered are deleted.
type TPOReport struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;->" json:"id"`
	GeneratedBy *uint     `json:"generated_by,omitempty"`
	Type        string    `gorm:"type:text;not null" json:"type"`
	DataJSON    string    `gorm:"type:text" json:"data_json"`
	GeneratedAt time.Time `gorm:"autoCreateTime" json:"generated_at"`
}
