package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

type fakeDetection struct {
	mu     sync.Mutex
	result models.DetectionResult
	err    error
	calls  []int64
}

func (f *fakeDetection) Detect(_ context.Context, videoID int64) (models.DetectionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, videoID)
	return f.result, f.err
}

func (f *fakeDetection) Calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.calls...)
}

type fakeAlertLogs struct {
	entry models.AlertLog
	err   error
}

func (f *fakeAlertLogs) Create(_ context.Context, videoID int64, lifeguardIDs []int64, supervisorID *int64) (models.AlertLog, error) {
	if f.err != nil {
		return models.AlertLog{}, f.err
	}
	f.entry = models.AlertLog{ID: 1, VideoID: videoID, LifeguardIDs: lifeguardIDs, SupervisorID: supervisorID}
	return f.entry, nil
}

type fakePublisher struct {
	payloads []json.RawMessage
}

func (f *fakePublisher) PublishAlert(data json.RawMessage) {
	f.payloads = append(f.payloads, data)
}

func detectionApp(detection *fakeDetection, logs *fakeAlertLogs, pub *fakePublisher) *fiber.App {
	app := fiber.New()
	dc := NewDetectionController(detection, logs, pub, "http://detector:5001/detect-stream")
	app.Post("/detect-drowning", dc.DetectDrowning)
	app.Get("/video-stream", dc.VideoStream)
	app.Post("/supervisor/alert", dc.RaiseAlert)
	return app
}

func TestDetectDrowningReturnsVerdict(t *testing.T) {
	detection := &fakeDetection{result: models.DetectionResult{DrowningDetected: true}}
	app := detectionApp(detection, &fakeAlertLogs{}, &fakePublisher{})

	resp := postJSON(t, app, "/detect-drowning", `{"videoId":7}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{7}, detection.Calls())

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["drowning_detected"])
}

func TestDetectDrowningAcceptsStringID(t *testing.T) {
	detection := &fakeDetection{}
	app := detectionApp(detection, &fakeAlertLogs{}, &fakePublisher{})

	resp := postJSON(t, app, "/detect-drowning", `{"videoId":"12"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{12}, detection.Calls())
}

func TestDetectDrowningRejectsNonNumericID(t *testing.T) {
	detection := &fakeDetection{}
	app := detectionApp(detection, &fakeAlertLogs{}, &fakePublisher{})

	resp := postJSON(t, app, "/detect-drowning", `{"videoId":"seven"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, detection.Calls())
}

func TestDetectDrowningUnknownVideo(t *testing.T) {
	app := detectionApp(&fakeDetection{err: apperrors.ErrNotFound}, &fakeAlertLogs{}, &fakePublisher{})

	resp := postJSON(t, app, "/detect-drowning", `{"videoId":99}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDetectDrowningRelayFailure(t *testing.T) {
	app := detectionApp(&fakeDetection{err: apperrors.ErrRelay}, &fakeAlertLogs{}, &fakePublisher{})

	resp := postJSON(t, app, "/detect-drowning", `{"videoId":7}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestDetectDrowningThrottled(t *testing.T) {
	app := detectionApp(&fakeDetection{err: apperrors.ErrThrottled}, &fakeAlertLogs{}, &fakePublisher{})

	resp := postJSON(t, app, "/detect-drowning", `{"videoId":7}`)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestVideoStreamRedirects(t *testing.T) {
	app := detectionApp(&fakeDetection{}, &fakeAlertLogs{}, &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/video-stream", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://detector:5001/detect-stream", resp.Header.Get("Location"))
}

func TestRaiseAlertPersistsAndBroadcasts(t *testing.T) {
	logs := &fakeAlertLogs{}
	pub := &fakePublisher{}
	app := detectionApp(&fakeDetection{}, logs, pub)

	resp := postJSON(t, app, "/supervisor/alert",
		`{"videoId":7,"lifeguardIds":[1,2],"supervisorId":3}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.Equal(t, int64(7), logs.entry.VideoID)
	assert.Equal(t, []int64{1, 2}, logs.entry.LifeguardIDs)

	require.Len(t, pub.payloads, 1)
	var published models.AlertLog
	require.NoError(t, json.Unmarshal(pub.payloads[0], &published))
	assert.Equal(t, int64(7), published.VideoID)
}

func TestRaiseAlertValidation(t *testing.T) {
	pub := &fakePublisher{}
	app := detectionApp(&fakeDetection{}, &fakeAlertLogs{err: apperrors.ErrValidation}, pub)

	resp := postJSON(t, app, "/supervisor/alert", `{"videoId":0}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, pub.payloads)
}
