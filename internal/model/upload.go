package model

import "time"

// File types accepted by the upload endpoints.
var (
	FileTypeResume      = "resume"
	FileTypeCertificate = "certificate"
)

// FileUpload is the metadata row for a resume or certificate stored in object
// storage. FilePath is the object key; FileURL the public address.
type FileUpload struct {
	ID     uint `gorm:"primaryKey;autoIncrement;->" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	FileName string `gorm:"type:text;not null" json:"file_name"`
	FilePath string `gorm:"type:text;not null" json:"file_path"`
	FileURL  string `gorm:"type:text" json:"file_url"`
	FileSize int64  `json:"file_size"`
	MimeType string `gorm:"type:text" json:"mime_type"`
	FileType string `gorm:"type:text" json:"file_type"`

	// IsPrimary marks the one resume a student presents by default.
	IsPrimary bool `gorm:"default:false" json:"is_primary"`

	IsVerified        bool   `gorm:"default:false" json:"is_verified"`
	VerifiedBy        *uint  `json:"verified_by,omitempty"`
	VerificationNotes string `gorm:"type:text" json:"verification_notes"`

	UploadedAt time.Time  `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"uploaded_at"`
	VerifiedAt *time.Time `gorm:"type:timestamp" json:"verified_at,omitempty"`
}
