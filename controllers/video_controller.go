package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/common"
	"aquaguard-backend/models"
)

// VideoStore is the slice of the video service the HTTP layer uses.
type VideoStore interface {
	Save(ctx context.Context, filename string, data []byte) (int64, error)
	List(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, id int64) (models.Video, error)
	AssignedTo(ctx context.Context, lifeguardID int64) ([]models.Video, error)
	RecentDetected(ctx context.Context) (models.DetectedVideo, error)
}

// DetectTrigger runs the detect-and-alert flow for one stored video.
type DetectTrigger interface {
	Detect(ctx context.Context, videoID int64) (models.DetectionResult, error)
}

type VideoController struct {
	videos       VideoStore
	detection    DetectTrigger
	processedDir string
	log          *zap.Logger
}

func NewVideoController(videos VideoStore, detection DetectTrigger, processedDir string) *VideoController {
	return &VideoController{
		videos:       videos,
		detection:    detection,
		processedDir: processedDir,
		log:          common.GetLogger("http"),
	}
}

// Upload handles POST /supervisor/upload: store the file, answer with the
// new id, then kick off detection in the background so the upload
// response is not held hostage by the external detector.
func (vc *VideoController) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		return errorResponse(c, apperrors.Wrapf(apperrors.ErrValidation, "no file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
	}

	videoID, err := vc.videos.Save(c.Context(), fileHeader.Filename, data)
	if err != nil {
		return errorResponse(c, err)
	}
	vc.log.Info("video stored",
		zap.Int64("video_id", videoID), zap.String("filename", fileHeader.Filename))

	go func(videoID int64) {
		defer func() {
			if r := recover(); r != nil {
				vc.log.Error("detection goroutine panicked", zap.Any("panic", r))
			}
		}()
		if _, err := vc.detection.Detect(context.Background(), videoID); err != nil {
			vc.log.Warn("post-upload detection failed",
				zap.Int64("video_id", videoID), zap.Error(err))
		}
	}(videoID)

	return c.JSON(fiber.Map{
		"message": "video uploaded successfully",
		"videoId": videoID,
	})
}

// List handles GET /videos and GET /supervisor/videos.
func (vc *VideoController) List(c *fiber.Ctx) error {
	videos, err := vc.videos.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return c.JSON(videos)
}

// Stream handles GET /videos/:id, serving the stored payload inline.
func (vc *VideoController) Stream(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	video, err := vc.videos.Get(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%s", video.Filename))
	return c.Send(video.FileData)
}

// Assigned handles GET /lifeguard/videos/:lifeguard_id.
func (vc *VideoController) Assigned(c *fiber.Ctx) error {
	id, err := parseID(c.Params("lifeguard_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	videos, err := vc.videos.AssignedTo(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return c.JSON(fiber.Map{"videos": videos})
}

// RecentDetected handles GET /lifeguard/recent-video.
func (vc *VideoController) RecentDetected(c *fiber.Ctx) error {
	dv, err := vc.videos.RecentDetected(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dv)
}

// Processed handles GET /processed-video/:video_id, serving the
// detector's annotated output file from disk.
func (vc *VideoController) Processed(c *fiber.Ctx) error {
	id, err := parseID(c.Params("video_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	path := filepath.Join(vc.processedDir, fmt.Sprintf("output_%d.mp4", id))
	if _, err := os.Stat(path); err != nil {
		return errorResponse(c, apperrors.Wrapf(apperrors.ErrNotFound, "processed video %d", id))
	}
	return c.SendFile(path)
}

// parseID parses a positive decimal route parameter.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Wrapf(apperrors.ErrValidation, "invalid id %q", raw)
	}
	return id, nil
}
