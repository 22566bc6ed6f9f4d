// Package event provides the placement event endpoints: posting, listing,
// registration and reminder fan-out.
package event

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

// EventController handles placement event endpoints
type EventController struct {
	DB *database.DBinstanceStruct
}

// NewEventController creates a new instance of EventController
func NewEventController(db *database.DBinstanceStruct) *EventController {
	return &EventController{DB: db}
}

type createEventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Category    string     `json:"category"`
	Date        *time.Time `json:"date"`
	EventTime   string     `json:"time"`
	FormURL     string     `json:"form_url"`
}

// CreateEvent posts a new Upcoming event.
// @Summary Create an event
// @Tags Event
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param event body createEventRequest true "Event fields"
// @Success 201 {object} model.Event
// @Failure 400 {object} utilities.ErrorResponse "Missing title"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events [post]
func (ec *EventController) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title must be provided",
		})
		return
	}

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	event := model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Date:        req.Date,
		EventTime:   req.EventTime,
		FormURL:     req.FormURL,
		Status:      model.EventStatusUpcoming,
		CreatedBy:   &user.ID,
	}

	if err := ec.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create event: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents returns events ordered by date. Cancelled events are excluded
// unless explicitly requested through the status filter.
// @Summary List events
// @Tags Event
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param status query string false "Filter by status"
// @Success 200 {array} model.Event
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events [get]
func (ec *EventController) ListEvents(c *gin.Context) {
	query := ec.DB.Order("date ASC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", model.EventStatusCancelled)
	}

	var events []model.Event
	if err := query.Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch events: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, events)
}

// eventResponse is an event with its derived registration count.
type eventResponse struct {
	model.Event
	Registered int `json:"registered"`
}

// GetEvent fetches one event with its registration count.
// @Summary Get an event
// @Tags Event
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param event_id path integer true "Event id"
// @Success 200 {object} eventResponse
// @Failure 404 {object} utilities.ErrorResponse "Event not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events/{event_id} [get]
func (ec *EventController) GetEvent(c *gin.Context) {
	var event model.Event
	err := ec.DB.Preload("Registrations").Where("id = ?", c.Param("event_id")).First(&event).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Event not found"})

	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch event: %s", err.Error()),
		})

	default:
		c.JSON(http.StatusOK, eventResponse{Event: event, Registered: len(event.Registrations)})
	}
}

// UpdateEvent applies a partial update to an event.
// @Summary Update an event
// @Tags Event
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param event_id path integer true "Event id"
// @Param patch body model.EventPatch true "Fields to update"
// @Success 200 {object} model.Event
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 404 {object} utilities.ErrorResponse "Event not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events/{event_id} [put]
func (ec *EventController) UpdateEvent(c *gin.Context) {
	var event model.Event
	if err := ec.DB.Where("id = ?", c.Param("event_id")).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch event: %s", err.Error()),
		})
		return
	}

	patch := model.EventPatch{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	patch.Apply(&event)

	if err := ec.DB.Omit("Registrations").Save(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update event: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, event)
}

type registerRequest struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// Register signs a student up for an event. The attendee can be named by id
// or by email; the email is also matched against profile alternate emails.
// Re-registering refreshes the timestamp instead of failing.
// @Summary Register for an event
// @Tags Event
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param event_id path integer true "Event id"
// @Param attendee body registerRequest true "Attendee id or email"
// @Success 200 {object} model.EventRegistration
// @Failure 400 {object} utilities.ErrorResponse "Event cancelled or attendee missing"
// @Failure 404 {object} utilities.ErrorResponse "Event or user not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events/{event_id}/register [post]
func (ec *EventController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.UserID == 0 && req.Email == "") {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "user_id or email must be provided",
		})
		return
	}

	var event model.Event
	if err := ec.DB.Where("id = ?", c.Param("event_id")).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch event: %s", err.Error()),
		})
		return
	}

	if event.Cancelled() {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Event has been cancelled",
		})
		return
	}

	user, err := ec.resolveAttendee(req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})
		return
	}

	registration := model.EventRegistration{
		EventID:      event.ID,
		UserID:       user.ID,
		RegisteredAt: time.Now(),
	}

	err = ec.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"registered_at"}),
	}).Create(&registration).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to register: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, registration)
}

func (ec *EventController) resolveAttendee(req registerRequest) (model.User, error) {
	var user model.User

	if req.UserID != 0 {
		err := ec.DB.Where("id = ?", req.UserID).First(&user).Error
		return user, err
	}

	err := ec.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&user).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	// Fall back to alternate emails recorded on profiles.
	err = ec.DB.
		Joins("INNER JOIN profiles p ON p.user_id = users.id").
		Where("LOWER(p.alternate_email) = LOWER(?)", req.Email).
		First(&user).Error
	return user, err
}

// attendeeRow is one registration with the user fields an organizer needs.
type attendeeRow struct {
	model.EventRegistration
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Registrations lists everyone signed up for an event.
// @Summary List event registrations
// @Tags Event
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param event_id path integer true "Event id"
// @Success 200 {array} attendeeRow
// @Failure 404 {object} utilities.ErrorResponse "Event not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events/{event_id}/registrations [get]
func (ec *EventController) Registrations(c *gin.Context) {
	var event model.Event
	if err := ec.DB.Where("id = ?", c.Param("event_id")).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch event: %s", err.Error()),
		})
		return
	}

	var rows []attendeeRow
	err := ec.DB.Table("event_registrations").
		Select("event_registrations.*, u.email, u.first_name, u.last_name").
		Joins("INNER JOIN users u ON u.id = event_registrations.user_id").
		Where("event_registrations.event_id = ?", event.ID).
		Order("event_registrations.registered_at ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch registrations: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}

type reminderResponse struct {
	Message  string `json:"message"`
	Notified int64  `json:"notified"`
}

// SendReminders writes a reminder notification for every registrant.
// @Summary Send event reminders
// @Tags Event
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param event_id path integer true "Event id"
// @Success 200 {object} reminderResponse
// @Failure 404 {object} utilities.ErrorResponse "Event not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /events/{event_id}/remind [post]
func (ec *EventController) SendReminders(c *gin.Context) {
	var event model.Event
	if err := ec.DB.Where("id = ?", c.Param("event_id")).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch event: %s", err.Error()),
		})
		return
	}

	message := fmt.Sprintf("Reminder: %s", event.Title)
	if event.Date != nil {
		message = fmt.Sprintf("Reminder: %s on %s", event.Title, event.Date.Format("2006-01-02"))
	}

	result := ec.DB.Exec(`INSERT INTO notifications (user_id, title, message)
		SELECT user_id, 'Event Reminder', ? FROM event_registrations WHERE event_id = ?`,
		message, event.ID,
	)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to send reminders: %s", result.Error.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, reminderResponse{
		Message:  "Reminders sent",
		Notified: result.RowsAffected,
	})
}
