package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

// VideoService stores uploaded footage. Payloads live in the videos table
// as BYTEA; rows are immutable once written.
type VideoService struct {
	db Querier
}

func NewVideoService(db Querier) *VideoService {
	return &VideoService{db: db}
}

// Save persists a new video and returns its server-generated id.
func (vs *VideoService) Save(ctx context.Context, filename string, data []byte) (int64, error) {
	var id int64
	err := vs.db.QueryRow(ctx,
		"INSERT INTO videos (filename, filedata) VALUES ($1, $2) RETURNING id",
		filename, data).Scan(&id)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return id, nil
}

// List returns video metadata newest-first. Payloads are not loaded.
func (vs *VideoService) List(ctx context.Context) ([]models.Video, error) {
	rows, err := vs.db.Query(ctx,
		"SELECT id, filename, uploaded_at FROM videos ORDER BY uploaded_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Filename, &v.UploadedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return videos, nil
}

// Get loads one video including its payload.
func (vs *VideoService) Get(ctx context.Context, id int64) (models.Video, error) {
	v := models.Video{ID: id}
	err := vs.db.QueryRow(ctx,
		"SELECT filename, filedata, uploaded_at FROM videos WHERE id = $1",
		id).Scan(&v.Filename, &v.FileData, &v.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, apperrors.Wrapf(apperrors.ErrNotFound, "video %d", id)
	}
	if err != nil {
		return models.Video{}, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return v, nil
}

// AssignedTo lists the videos a lifeguard is responsible for reviewing,
// via the alert_logs assignment rows.
func (vs *VideoService) AssignedTo(ctx context.Context, lifeguardID int64) ([]models.Video, error) {
	rows, err := vs.db.Query(ctx, `
		SELECT videos.id, videos.filename, videos.uploaded_at
		FROM alert_logs
		JOIN videos ON alert_logs.video_id = videos.id
		WHERE $1 = ANY(alert_logs.lifeguard_ids)
		ORDER BY videos.uploaded_at DESC`,
		lifeguardID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Filename, &v.UploadedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return videos, nil
}

// RecentDetected returns the newest detector-annotated video row.
func (vs *VideoService) RecentDetected(ctx context.Context) (models.DetectedVideo, error) {
	var dv models.DetectedVideo
	err := vs.db.QueryRow(ctx, `
		SELECT id, video_id, detected_video_path, detected_at
		FROM detected_videos
		ORDER BY detected_at DESC
		LIMIT 1`).Scan(&dv.ID, &dv.VideoID, &dv.Path, &dv.DetectedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DetectedVideo{}, apperrors.Wrapf(apperrors.ErrNotFound, "no detected videos")
	}
	if err != nil {
		return models.DetectedVideo{}, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return dv, nil
}
