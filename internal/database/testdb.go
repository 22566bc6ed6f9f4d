package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test users, profiles and jobs
var (
	TestAdminUser    m.User
	TestUserTPO      m.User
	TestUserStudent1 m.User
	TestUserStudent2 m.User
	TestProfile1     m.Profile

	// Shared plain password for all seeded accounts
	TestSeedPassword = "SeedPass123!"

	TestJob1 m.Job
	TestJob2 m.Job

	TestEvent1 m.Event
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts sample students, a TPO, an admin, two jobs and an
// event if the database is empty.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	if userCount > 0 {
		return loadTestData(db)
	}

	hashedPwd, errHash := utilities.HashPassword(TestSeedPassword)
	if errHash != nil {
		return errHash
	}

	userSpecs := []struct {
		username  string
		email     string
		role      string
		approved  bool
		firstName string
	}{
		{"admin_user", "admin@example.com", m.RoleAdmin, true, "Admin"},
		{"tpo_user", "tpo@example.com", m.RoleTPO, true, "Tara"},
		{"student_1", "student1@example.com", m.RoleStudent, true, "Alice"},
		{"student_2", "student2@example.com", m.RoleStudent, false, "Bob"},
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			ClerkUserID: utilities.LocalClerkID(),
			Email:       s.email,
			Username:    s.username,
			Password:    hashedPwd,
			FirstName:   s.firstName,
			LastName:    "Test",
			Role:        s.role,
			IsApproved:  s.approved,
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}

	for _, u := range users {
		switch u.Username {
		case "admin_user":
			TestAdminUser = u
		case "tpo_user":
			TestUserTPO = u
		case "student_1":
			TestUserStudent1 = u
		case "student_2":
			TestUserStudent2 = u
		}
	}

	// Student 1 carries a complete, approved profile; student 2 has none.
	TestProfile1 = m.Profile{
		UserID:         TestUserStudent1.ID,
		Phone:          "0100000001",
		Degree:         "B.Tech CSE",
		Year:           "2026",
		Skills:         "Go, SQL",
		About:          "Backend developer",
		AlternateEmail: "alice.alt@example.com",
		IsApproved:     true,
	}
	if err := db.Create(&TestProfile1).Error; err != nil {
		return err
	}
	if err := db.Model(&m.User{}).
		Where("id = ?", TestUserStudent1.ID).
		Update("profile_complete", true).Error; err != nil {
		return err
	}
	TestUserStudent1.ProfileComplete = true

	jobs := []m.Job{
		{
			Title:       "Backend Engineer",
			Company:     "TechNova",
			Location:    "Pune (Hybrid)",
			Salary:      "12 LPA",
			Type:        "Full-time",
			Description: "Go services and database layers.",
			Status:      m.JobStatusActive,
			CreatedBy:   &TestUserTPO.ID,
		},
		{
			Title:       "Data Analyst",
			Company:     "DataForge",
			Location:    "Remote",
			Salary:      "8 LPA",
			Type:        "Full-time",
			Description: "Dashboards and reporting.",
			Status:      m.JobStatusClosed,
			CreatedBy:   &TestUserTPO.ID,
		},
	}
	if err := db.Create(&jobs).Error; err != nil {
		return err
	}
	TestJob1 = jobs[0]
	TestJob2 = jobs[1]

	eventDate := time.Now().AddDate(0, 1, 0)
	TestEvent1 = m.Event{
		Title:       "Placement Drive Prep",
		Description: "Mock interviews and resume review.",
		Location:    "Auditorium A",
		Category:    "Workshop",
		Date:        &eventDate,
		EventTime:   "10:00",
		Status:      m.EventStatusUpcoming,
		CreatedBy:   &TestUserTPO.ID,
	}
	if err := db.Create(&TestEvent1).Error; err != nil {
		return err
	}

	return nil
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var users []m.User
	if err := db.Where("username IN ?", []string{
		"admin_user", "tpo_user", "student_1", "student_2",
	}).Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		switch u.Username {
		case "admin_user":
			TestAdminUser = u
		case "tpo_user":
			TestUserTPO = u
		case "student_1":
			TestUserStudent1 = u
		case "student_2":
			TestUserStudent2 = u
		}
	}

	_ = db.First(&TestProfile1, "user_id = ?", TestUserStudent1.ID).Error

	var jobs []m.Job
	if err := db.Order("id ASC").Limit(2).Find(&jobs).Error; err == nil {
		if len(jobs) > 0 {
			TestJob1 = jobs[0]
		}
		if len(jobs) > 1 {
			TestJob2 = jobs[1]
		}
	}

	_ = db.Order("id ASC").First(&TestEvent1).Error

	return nil
}
