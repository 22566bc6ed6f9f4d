package model

import (
	"strings"
	"time"
)

// Job status values. Status is stored as free text but only these two carry
// meaning; the comparison is always case-insensitive.
var (
	JobStatusActive = "Active"
	JobStatusClosed = "Closed"
)

// Job application status values.
var (
	ApplicationStatusApplied     = "applied"
	ApplicationStatusReviewed    = "reviewed"
	ApplicationStatusShortlisted = "shortlisted"
	ApplicationStatusSelected    = "selected"
	ApplicationStatusAccepted    = "accepted"
	ApplicationStatusRejected    = "rejected"
	ApplicationStatusWithdrawn   = "withdrawn"
)

// Job is a posting created by a TPO. The applicant count is never stored, it
// is derived from the applications relation at read time.
type Job struct {
	ID           uint       `gorm:"primaryKey;autoIncrement;->" json:"id"`
	Title        string     `gorm:"type:text;not null" json:"title"`
	Company      string     `gorm:"type:text;not null" json:"company"`
	Location     string     `gorm:"type:text" json:"location"`
	Salary       string     `gorm:"type:text" json:"salary"`
	Type         string     `gorm:"type:text" json:"type"`
	Description  string     `gorm:"type:text" json:"description"`
	Requirements string     `gorm:"type:text" json:"requirements"`
	JobURL       string     `gorm:"type:text" json:"job_url"`
	Deadline     *time.Time `gorm:"type:date" json:"deadline,omitempty"`
	Status       string     `gorm:"type:text;default:'Active'" json:"status"`
	CreatedBy    *uint      `json:"created_by,omitempty"`

	Posted    time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"posted"`
	UpdatedAt time.Time `gorm:"type:timestamp" json:"updated_at"`

	Applications []JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// Closed reports whether the job has reached its terminal status.
func (j *Job) Closed() bool {
	return strings.EqualFold(strings.TrimSpace(j.Status), JobStatusClosed)
}

// SetStatus applies a requested status change. Closing is permanent: once a
// job is Closed, later requests to reactivate it are accepted but ignored.
func (j *Job) SetStatus(requested string) {
	if j.Closed() {
		return
	}
	if strings.EqualFold(strings.TrimSpace(requested), JobStatusClosed) {
		j.Status = JobStatusClosed
		return
	}
	j.Status = requested
}

// JobResponse is a job with its derived applicant count.
type JobResponse struct {
	Job
	Applicants int `json:"applicants"`
}

// ToJobResponse attaches the applicant count. The applications relation must
// be preloaded first.
func (j Job) ToJobResponse() JobResponse {
	return JobResponse{Job: j, Applicants: len(j.Applications)}
}

// JobPatch is a partial job update. Status changes go through Job.SetStatus
// so closing stays a one-way transition; every other supplied field applies
// unconditionally.
type JobPatch struct {
	Title        *string    `json:"title"`
	Company      *string    `json:"company"`
	Location     *string    `json:"location"`
	Salary       *string    `json:"salary"`
	Type         *string    `json:"type"`
	Description  *string    `json:"description"`
	Requirements *string    `json:"requirements"`
	JobURL       *string    `json:"job_url"`
	Deadline     *time.Time `json:"deadline"`
	Status       *string    `json:"status"`
}

// Apply overwrites only the fields present in the patch.
func (p *JobPatch) Apply(dst *Job) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Company != nil {
		dst.Company = *p.Company
	}
	if p.Location != nil {
		dst.Location = *p.Location
	}
	if p.Salary != nil {
		dst.Salary = *p.Salary
	}
	if p.Type != nil {
		dst.Type = *p.Type
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Requirements != nil {
		dst.Requirements = *p.Requirements
	}
	if p.JobURL != nil {
		dst.JobURL = *p.JobURL
	}
	if p.Deadline != nil {
		dst.Deadline = p.Deadline
	}
	if p.Status != nil {
		dst.SetStatus(*p.Status)
	}
}

// JobApplication records a student applying to a job, unique per (job, user).
type JobApplication struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	JobID uint `gorm:"not null;index;uniqueIndex:idx_job_applicant" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID" json:"-"`

	UserID uint `gorm:"not null;index;uniqueIndex:idx_job_applicant" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;references:ID" json:"-"`

	CoverLetter string    `gorm:"type:text" json:"cover_letter"`
	Status      string    `gorm:"type:text;default:'applied'" json:"status"`
	AppliedAt   time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP" json:"applied_at"`
}
