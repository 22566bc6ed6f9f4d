package model

import "time"

// Event status values.
var (
	EventStatusUpcoming  = "Upcoming"
	EventStatusCompleted = "Completed"
	EventStatusCancelled = "Cancelled"
)

// Event is a placement activity (workshop, drive, seminar) posted by a TPO.
type Event struct {
	ID          uint       `gorm:"primaryKey;autoIncrement;->" json:"id"`
	Title       string     `gorm:"type:text;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `gorm:"type:text" json:"location"`
	Category    string     `gorm:"type:text" json:"category"`
	Date        *time.Time `gorm:"type:date" json:"date,omitempty"`
	EventTime   string     `gorm:"type:text" json:"time"`
	FormURL     string     `gorm:"type:text" json:"form_url"`
	Status      string     `gorm:"type:text;default:'Upcoming'" json:"status"`
	CreatedBy   *uint      `json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp" json:"updated_at"`

	Registrations []EventRegistration `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

// Cancelled reports whether registrations are shut.
func (e *Event) Cancelled() bool {
	return e.Status == EventStatusCancelled
}

// EventPatch is a partial event update.
type EventPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Category    *string    `json:"category"`
	Date        *time.Time `json:"date"`
	EventTime   *string    `json:"time"`
	FormURL     *string    `json:"form_url"`
	Status      *string    `json:"status"`
}

// Apply overwrites only the fields present in the patch.
func (p *EventPatch) Apply(dst *Event) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Location != nil {
		dst.Location = *p.Location
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Date != nil {
		dst.Date = p.Date
	}
	if p.EventTime != nil {
		dst.EventTime = *p.EventTime
	}
	if p.FormURL != nil {
		dst.FormURL = *p.FormURL
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
}

// EventRegistration records a student signing up for an event, unique per
// (event, user). Re-registering only refreshes the timestamp.
type EventRegistration struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	EventID uint  `gorm:"not null;index;uniqueIndex:idx_event_attendee" json:"event_id"`
	Event   Event `gorm:"foreignKey:EventID;references:ID" json:"-"`

	UserID uint `gorm:"not null;index;uniqueIndex:idx_event_attendee" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;references:ID" json:"-"`

	RegisteredAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP" json:"registered_at"`
}
