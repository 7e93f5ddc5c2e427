package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/common"
	"aquaguard-backend/models"
)

// VideoLoader resolves a video id to its stored payload.
type VideoLoader interface {
	Get(ctx context.Context, id int64) (models.Video, error)
}

// Detector performs the single outbound relay call.
type Detector interface {
	Detect(ctx context.Context, filename string, data []byte) (models.DetectionResult, error)
}

// DrowningBroadcaster fans a positive verdict out to connected sessions.
type DrowningBroadcaster interface {
	PublishDrowning(videoID int64)
}

// DetectionService couples the relay call to the alert broadcast: one
// logical detect-and-alert operation from the caller's point of view.
// The two halves are deliberately not transactional; a crash between
// relay success and broadcast loses that one alert (no outbox, no
// replay).
type DetectionService struct {
	videos  VideoLoader
	client  Detector
	bus     DrowningBroadcaster
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewDetectionService(videos VideoLoader, client Detector, bus DrowningBroadcaster, relayRate float64, relayBurst int) *DetectionService {
	return &DetectionService{
		videos:  videos,
		client:  client,
		bus:     bus,
		limiter: rate.NewLimiter(rate.Limit(relayRate), relayBurst),
		log:     common.GetLogger("detector"),
	}
}

// Detect validates the video exists, relays it once to the external
// detector, and on a positive verdict broadcasts drowningAlert before
// returning. A missing video fails with ErrNotFound and makes zero relay
// calls; a relay failure surfaces as ErrRelay and broadcasts nothing.
func (s *DetectionService) Detect(ctx context.Context, videoID int64) (models.DetectionResult, error) {
	if !s.limiter.Allow() {
		return models.DetectionResult{}, apperrors.ErrThrottled
	}

	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return models.DetectionResult{}, err
	}

	result, err := s.client.Detect(ctx, video.Filename, video.FileData)
	if err != nil {
		s.log.Error("relay call failed", zap.Int64("video_id", videoID), zap.Error(err))
		return models.DetectionResult{}, err
	}

	if result.DrowningDetected {
		s.log.Info("drowning detected", zap.Int64("video_id", videoID))
		s.bus.PublishDrowning(videoID)
	}
	return result, nil
}
