package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeProfile() Profile {
	return Profile{
		Phone:          "0100000001",
		Degree:         "B.Tech CSE",
		Year:           "2026",
		Skills:         "Go, SQL",
		About:          "Backend developer",
		AlternateEmail: "alt@example.com",
	}
}

func TestProfileComplete(t *testing.T) {
	p := completeProfile()
	assert.True(t, p.Complete())

	p.Skills = ""
	assert.False(t, p.Complete())

	p.Skills = "   "
	assert.False(t, p.Complete())
}

func TestProfileComplete_OptionalFieldsIgnored(t *testing.T) {
	p := completeProfile()
	p.ProfileImageURL = ""
	p.PlacementStatus = ""
	assert.True(t, p.Complete())
}

func TestProfilePatch_AppliesOnlyPresentFields(t *testing.T) {
	p := completeProfile()
	p.IsApproved = true

	newAbout := "Distributed systems"
	patch := ProfilePatch{About: &newAbout}
	patch.Apply(&p)

	assert.Equal(t, "Distributed systems", p.About)
	assert.Equal(t, "B.Tech CSE", p.Degree)
	// Approval is not patchable; resetting it is the handler's job.
	assert.True(t, p.IsApproved)
}
