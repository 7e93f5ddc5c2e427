// Package eventhandlers consumes asynchronous detection reports from the
// external detector pipeline and turns them into alert logs plus
// real-time broadcasts.
package eventhandlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"aquaguard-backend/common"
	"aquaguard-backend/models"
	"aquaguard-backend/services"
)

// Broadcaster is the slice of the realtime bus the consumer uses.
type Broadcaster interface {
	PublishDrowning(videoID int64)
	PublishLogRefresh()
}

// AlertLogCreator records an assignment row for a detection.
type AlertLogCreator interface {
	Create(ctx context.Context, videoID int64, lifeguardIDs []int64, supervisorID *int64) (models.AlertLog, error)
}

// KafkaHandler consumes `DrowningFound:<videoID>:<confidence>` messages.
// Each one assigns every registered lifeguard to the video and fans out
// a drowningAlert plus an updateAlertLogs refresh.
type KafkaHandler struct {
	Reader    *kafka.Reader
	db        services.Querier
	alertLogs AlertLogCreator
	bus       Broadcaster
	log       *zap.Logger
}

func NewKafkaHandler(brokers []string, topic, groupID string, db services.Querier, alertLogs AlertLogCreator, bus Broadcaster) *KafkaHandler {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaHandler{
		Reader:    reader,
		db:        db,
		alertLogs: alertLogs,
		bus:       bus,
		log:       common.GetLogger("kafka"),
	}
}

// Start consumes until ctx is canceled.
func (kh *KafkaHandler) Start(ctx context.Context) {
	defer kh.Reader.Close()
	for {
		m, err := kh.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			kh.log.Error("kafka read failed", zap.Error(err))
			time.Sleep(1 * time.Second)
			continue
		}
		kh.log.Info("detection event received", zap.ByteString("message", m.Value))
		kh.processMessage(ctx, string(m.Value))
	}
}

const detectionPrefix = "DrowningFound:"

// parseDetectionMessage extracts the video id and confidence from a
// `DrowningFound:<videoID>:<confidence>` message. ok is false for
// anything that does not parse.
func parseDetectionMessage(message string) (videoID int64, confidence float64, ok bool) {
	if !strings.HasPrefix(message, detectionPrefix) {
		return 0, 0, false
	}
	parts := strings.Split(message[len(detectionPrefix):], ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	videoID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || videoID <= 0 {
		return 0, 0, false
	}
	confidence, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return videoID, confidence, true
}

func (kh *KafkaHandler) processMessage(ctx context.Context, message string) {
	videoID, confidence, ok := parseDetectionMessage(message)
	if !ok {
		kh.log.Warn("invalid detection message", zap.String("message", message))
		return
	}

	lifeguardIDs, err := kh.listLifeguardIDs(ctx)
	if err != nil {
		kh.log.Error("failed to list lifeguards", zap.Error(err))
		return
	}
	if len(lifeguardIDs) == 0 {
		kh.log.Warn("no lifeguards registered, detection not assigned",
			zap.Int64("video_id", videoID))
	} else {
		if _, err := kh.alertLogs.Create(ctx, videoID, lifeguardIDs, nil); err != nil {
			kh.log.Error("failed to record alert log",
				zap.Int64("video_id", videoID), zap.Error(err))
			return
		}
	}

	kh.bus.PublishDrowning(videoID)
	kh.bus.PublishLogRefresh()
	kh.log.Info("detection recorded",
		zap.Int64("video_id", videoID), zap.Float64("confidence", confidence))
}

func (kh *KafkaHandler) listLifeguardIDs(ctx context.Context) ([]int64, error) {
	rows, err := kh.db.Query(ctx, "SELECT id FROM lifeguard ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
