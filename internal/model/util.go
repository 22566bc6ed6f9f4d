// Package model contains the gorm models persisted by the service.
package model

// MigrateAble is the list of model instances used for database migration.
var MigrateAble []interface{}

func init() {
	MigrateAble = append(
		MigrateAble,
		&User{},
		&Profile{},
		&Job{},
		&JobApplication{},
		&FileUpload{},
		&Event{},
		&EventRegistration{},
		&Notification{},
		&TPOReport{},
	)
}
