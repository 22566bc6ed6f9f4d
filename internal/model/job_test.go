package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetStatus_CloseIsPermanent(t *testing.T) {
	job := Job{Status: JobStatusActive}

	job.SetStatus("closed")
	assert.Equal(t, JobStatusClosed, job.Status)
	assert.True(t, job.Closed())

	job.SetStatus(JobStatusActive)
	assert.Equal(t, JobStatusClosed, job.Status)

	job.SetStatus("anything else")
	assert.Equal(t, JobStatusClosed, job.Status)
}

func TestSetStatus_ActiveAcceptsFreeText(t *testing.T) {
	job := Job{Status: JobStatusActive}

	job.SetStatus("On Hold")
	assert.Equal(t, "On Hold", job.Status)
	assert.False(t, job.Closed())

	job.SetStatus("CLOSED")
	assert.True(t, job.Closed())
}

func TestJobPatch_StatusGoesThroughSetStatus(t *testing.T) {
	job := Job{Title: "Backend Engineer", Status: JobStatusClosed}

	reopen := JobStatusActive
	newTitle := "Platform Engineer"
	patch := JobPatch{Title: &newTitle, Status: &reopen}
	patch.Apply(&job)

	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, JobStatusClosed, job.Status)
}

func TestToJobResponse_CountsApplications(t *testing.T) {
	job := Job{
		Applications: []JobApplication{{UserID: 1}, {UserID: 2}},
	}

	resp := job.ToJobResponse()
	assert.Equal(t, 2, resp.Applicants)
}
