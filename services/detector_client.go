package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

// DetectorClient talks to the external drowning-detection service. One
// invocation performs exactly one outbound call: no retry, no backoff.
type DetectorClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewDetectorClient(baseURL string, timeout time.Duration) *DetectorClient {
	return &DetectorClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Detect posts the video payload to the detection service and returns its
// verdict. Timeouts, non-2xx statuses, and undecodable bodies all surface
// as ErrRelay.
func (c *DetectorClient) Detect(ctx context.Context, filename string, data []byte) (models.DetectionResult, error) {
	var result models.DetectionResult

	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	part, err := writer.CreateFormFile("video_file", filename)
	if err != nil {
		return result, apperrors.Wrap(apperrors.ErrRelay, err)
	}
	if _, err := part.Write(data); err != nil {
		return result, apperrors.Wrap(apperrors.ErrRelay, err)
	}
	if err := writer.Close(); err != nil {
		return result, apperrors.Wrap(apperrors.ErrRelay, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/detect", &b)
	if err != nil {
		return result, apperrors.Wrap(apperrors.ErrRelay, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return result, apperrors.Wrap(apperrors.ErrRelay, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, apperrors.Wrapf(apperrors.ErrRelay, "detector returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, apperrors.Wrap(apperrors.ErrRelay, fmt.Errorf("malformed detector response: %w", err))
	}
	return result, nil
}

// StreamURL is the detector's live annotated stream, used by the
// /video-stream redirect.
func (c *DetectorClient) StreamURL() string {
	return c.BaseURL + "/detect-stream"
}
