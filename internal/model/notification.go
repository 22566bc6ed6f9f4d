package model

import "time"

// Notification is an append-only log row shown on the user's dashboard.
// Rejection and broadcast flows create these as side effects; a failed email
// never removes the row.
type Notification struct {
	ID     uint `gorm:"primaryKey;autoIncrement;->" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Title   string `gorm:"type:text" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	IsRead  bool   `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time  `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	ReadAt    *time.Time `gorm:"type:timestamp" json:"read_at,omitempty"`
}
