package tpo

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// jobStat is one aggregate row of the placement statistics: how many students
// applied to a job and how many of them were selected.
type jobStat struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Applications int    `json:"applications"`
	Selected     int    `json:"selected"`
}

type statsSummary struct {
	TotalJobs         int64     `json:"total_jobs"`
	TotalApplications int64     `json:"total_applications"`
	TotalSelected     int64     `json:"total_selected"`
	ApplicationsByJob []jobStat `json:"applications_by_job"`
}

func (tc *TPOController) applicationsByJob() ([]jobStat, error) {
	var rows []jobStat
	err := tc.DB.Table("jobs j").
		Select(`j.id, j.title, COUNT(a.id) AS applications,
			COALESCE(SUM(CASE WHEN LOWER(a.status) = ? THEN 1 ELSE 0 END), 0) AS selected`,
			model.ApplicationStatusSelected).
		Joins("LEFT JOIN job_applications a ON a.job_id = j.id").
		Group("j.id, j.title").
		Order("applications DESC").
		Scan(&rows).Error
	return rows, err
}

// StatsSummary aggregates placement numbers: overall totals plus a per-job
// breakdown ordered by application volume.
// @Summary Placement statistics summary
// @Tags TPO
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} statsSummary
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/stats/summary [get]
func (tc *TPOController) StatsSummary(c *gin.Context) {
	var summary statsSummary

	err := tc.DB.Model(&model.Job{}).Count(&summary.TotalJobs).Error
	if err == nil {
		err = tc.DB.Model(&model.JobApplication{}).Count(&summary.TotalApplications).Error
	}
	if err == nil {
		err = tc.DB.Model(&model.JobApplication{}).
			Where("LOWER(status) = ?", model.ApplicationStatusSelected).
			Count(&summary.TotalSelected).Error
	}
	if err == nil {
		summary.ApplicationsByJob, err = tc.applicationsByJob()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate stats: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// StatsSummaryCSV streams the per-job breakdown as a CSV attachment and logs
// the export in tpo_reports.
// @Summary Placement statistics as CSV
// @Tags TPO
// @Produce text/csv
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {string} string "CSV report"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/stats/summary.csv [get]
func (tc *TPOController) StatsSummaryCSV(c *gin.Context) {
	rows, err := tc.applicationsByJob()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate report: %s", err.Error()),
		})
		return
	}

	if err := tc.logReport(c, rows); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to record report: %s", err.Error()),
		})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="tpo_summary.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"job_id", "title", "applications", "selected"})
	for _, row := range rows {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.Title,
			strconv.Itoa(row.Applications),
			strconv.Itoa(row.Selected),
		})
	}
	w.Flush()
}

func (tc *TPOController) logReport(c *gin.Context, rows []jobStat) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	report := model.TPOReport{
		Type:     model.ReportTypeSummary,
		DataJSON: string(data),
	}
	if user, err := utilities.ExtractUser(c); err == nil {
		report.GeneratedBy = &user.ID
	}
	return tc.DB.Create(&report).Error
}
