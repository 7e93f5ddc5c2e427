package controllers

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

// AlertPublisher is the slice of the realtime bus the HTTP layer uses.
type AlertPublisher interface {
	PublishAlert(data json.RawMessage)
}

// AlertLogWriter records assignment rows when an alert is raised.
type AlertLogWriter interface {
	Create(ctx context.Context, videoID int64, lifeguardIDs []int64, supervisorID *int64) (models.AlertLog, error)
}

type DetectionController struct {
	detection DetectTrigger
	alertLogs AlertLogWriter
	bus       AlertPublisher
	streamURL string
}

func NewDetectionController(detection DetectTrigger, alertLogs AlertLogWriter, bus AlertPublisher, streamURL string) *DetectionController {
	return &DetectionController{
		detection: detection,
		alertLogs: alertLogs,
		bus:       bus,
		streamURL: streamURL,
	}
}

var videoIDPattern = regexp.MustCompile(`^\d+$`)

type detectRequest struct {
	// VideoID arrives as a JSON number or a string of digits; both are
	// accepted, everything else is rejected.
	VideoID json.RawMessage `json:"videoId"`
}

// DetectDrowning handles POST /detect-drowning: synchronous relay to the
// external detector; on a positive verdict the drowningAlert broadcast
// happens inside the detection service before this handler answers.
func (dc *DetectionController) DetectDrowning(c *fiber.Ctx) error {
	var req detectRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
	}
	raw := strings.Trim(string(req.VideoID), `"`)
	if !videoIDPattern.MatchString(raw) {
		return errorResponse(c, apperrors.Wrapf(apperrors.ErrValidation, "invalid video ID"))
	}
	videoID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
	}

	result, err := dc.detection.Detect(c.Context(), videoID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

// VideoStream handles GET /video-stream, redirecting to the detector's
// live annotated stream.
func (dc *DetectionController) VideoStream(c *fiber.Ctx) error {
	return c.Redirect(dc.streamURL, fiber.StatusFound)
}

type raiseAlertRequest struct {
	VideoID      int64   `json:"videoId"`
	LifeguardIDs []int64 `json:"lifeguardIds"`
	SupervisorID *int64  `json:"supervisorId"`
}

// RaiseAlert handles POST /supervisor/alert: persist the assignment row,
// then echo it to every connected session as a lifeguardAlert followed
// by an updateAlertLogs refresh.
func (dc *DetectionController) RaiseAlert(c *fiber.Ctx) error {
	var req raiseAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
	}
	if req.VideoID <= 0 {
		return errorResponse(c, apperrors.Wrapf(apperrors.ErrValidation, "invalid video ID"))
	}

	entry, err := dc.alertLogs.Create(c.Context(), req.VideoID, req.LifeguardIDs, req.SupervisorID)
	if err != nil {
		return errorResponse(c, err)
	}

	payload, err := json.Marshal(entry)
	if err == nil {
		dc.bus.PublishAlert(payload)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "alert raised",
		"alert":   entry,
	})
}
