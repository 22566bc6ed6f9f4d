// Package job provides the job lifecycle endpoints: posting, listing,
// updating with the one-way close, and student applications.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// JobController handles job posting and application endpoints
type JobController struct {
	DB *database.DBinstanceStruct
}

// NewJobController creates a new instance of JobController
func NewJobController(db *database.DBinstanceStruct) *JobController {
	return &JobController{DB: db}
}

type createJobRequest struct {
	Title        string     `json:"title" binding:"required"`
	Company      string     `json:"company" binding:"required"`
	Location     string     `json:"location"`
	Salary       string     `json:"salary"`
	Type         string     `json:"type"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	JobURL       string     `json:"job_url"`
	Deadline     *time.Time `json:"deadline"`
}

// CreateJob posts a new Active job and fans a "New Job" notification out to
// every student in one statement.
// @Summary Create a job posting
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job body createJobRequest true "Job fields"
// @Success 201 {object} model.Job
// @Failure 400 {object} utilities.ErrorResponse "Missing title or company"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [post]
func (jc *JobController) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title and company must be provided",
		})
		return
	}

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job := model.Job{
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		Salary:       req.Salary,
		Type:         req.Type,
		Description:  req.Description,
		Requirements: req.Requirements,
		JobURL:       req.JobURL,
		Deadline:     req.Deadline,
		Status:       model.JobStatusActive,
		CreatedBy:    &user.ID,
	}

	txErr := jc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}

		return tx.Exec(`INSERT INTO notifications (user_id, title, message)
			SELECT id, 'New Job', ? FROM users WHERE role = ?`,
			fmt.Sprintf("New job posted: %s at %s", job.Title, job.Company),
			model.RoleStudent,
		).Error
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create job: %s", txErr.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListJobs returns the jobs students can still act on. A NULL or blank status
// counts as Active.
// @Summary List open jobs
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Job
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [get]
func (jc *JobController) ListJobs(c *gin.Context) {
	var jobs []model.Job
	err := jc.DB.
		Where("LOWER(COALESCE(NULLIF(status, ''), 'Active')) <> 'closed'").
		Order("posted DESC").
		Find(&jobs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch jobs: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// ListAllJobs returns every job, closed included, with applicant counts.
// @Summary List all jobs with applicant counts
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.JobResponse
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/all [get]
func (jc *JobController) ListAllJobs(c *gin.Context) {
	var jobs []model.Job
	err := jc.DB.Preload("Applications").Order("posted DESC").Find(&jobs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch jobs: %s", err.Error()),
		})
		return
	}

	responses := make([]model.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, job.ToJobResponse())
	}

	c.JSON(http.StatusOK, responses)
}

// GetJob fetches one job with its applicant count.
// @Summary Get a job
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id path integer true "Job id"
// @Success 200 {object} model.JobResponse
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{job_id} [get]
func (jc *JobController) GetJob(c *gin.Context) {
	var job model.Job
	err := jc.DB.Preload("Applications").Where("id = ?", c.Param("job_id")).First(&job).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})

	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch job: %s", err.Error()),
		})

	default:
		c.JSON(http.StatusOK, job.ToJobResponse())
	}
}

// UpdateJob applies a partial update. A status change to anything other than
// Closed on an already closed job is silently ignored.
// @Summary Update a job
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id path integer true "Job id"
// @Param patch body model.JobPatch true "Fields to update"
// @Success 200 {object} model.JobResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{job_id} [put]
func (jc *JobController) UpdateJob(c *gin.Context) {
	var job model.Job
	if err := jc.DB.Preload("Applications").Where("id = ?", c.Param("job_id")).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch job: %s", err.Error()),
		})
		return
	}

	patch := model.JobPatch{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	patch.Apply(&job)

	if err := jc.DB.Omit("Applications").Save(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, job.ToJobResponse())
}

// DeleteJob removes a job; applications follow via the cascade.
// @Summary Delete a job
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id path integer true "Job id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{job_id} [delete]
func (jc *JobController) DeleteJob(c *gin.Context) {
	var job model.Job
	if err := jc.DB.Where("id = ?", c.Param("job_id")).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch job: %s", err.Error()),
		})
		return
	}

	if err := jc.DB.Select(clause.Associations).Delete(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job deleted successfully"})
}

type applyRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	CoverLetter string `json:"cover_letter"`
}

// Apply records a student's application. Re-applying to the same job updates
// the cover letter and timestamp in place instead of failing.
// @Summary Apply to a job
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id path integer true "Job id"
// @Param application body applyRequest true "Applicant and cover letter"
// @Success 200 {object} model.JobApplication
// @Failure 400 {object} utilities.ErrorResponse "Missing user id"
// @Failure 404 {object} utilities.ErrorResponse "Job or user not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{job_id}/apply [post]
func (jc *JobController) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "user_id must be provided",
		})
		return
	}

	var job model.Job
	if err := jc.DB.Where("id = ?", c.Param("job_id")).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch job: %s", err.Error()),
		})
		return
	}

	var user model.User
	if err := jc.DB.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})
		return
	}

	application := model.JobApplication{
		JobID:       job.ID,
		UserID:      user.ID,
		CoverLetter: req.CoverLetter,
		Status:      model.ApplicationStatusApplied,
		AppliedAt:   time.Now(),
	}

	err := jc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cover_letter", "applied_at"}),
	}).Create(&application).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to apply: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, application)
}

// applicantRow is one applicant with the user fields a reviewer needs.
type applicantRow struct {
	model.JobApplication
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// JobApplications lists everyone who applied to a job, newest first.
// @Summary List applications for a job
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param job_id path integer true "Job id"
// @Success 200 {array} applicantRow
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{job_id}/applications [get]
func (jc *JobController) JobApplications(c *gin.Context) {
	var job model.Job
	if err := jc.DB.Where("id = ?", c.Param("job_id")).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch job: %s", err.Error()),
		})
		return
	}

	var rows []applicantRow
	err := jc.DB.Table("job_applications").
		Select("job_applications.*, u.email, u.first_name, u.last_name").
		Joins("INNER JOIN users u ON u.id = job_applications.user_id").
		Where("job_applications.job_id = ?", job.ID).
		Order("job_applications.applied_at DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch applications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}
