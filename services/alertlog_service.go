package services

import (
	"context"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

// AlertLogService records which lifeguards are responsible for reviewing
// a video. Rows are created when an alert is raised and cascade-deleted
// with their owning supervisor (see AccountService.Remove).
type AlertLogService struct {
	db Querier
}

func NewAlertLogService(db Querier) *AlertLogService {
	return &AlertLogService{db: db}
}

// Create inserts one assignment row. At least one lifeguard is required.
func (als *AlertLogService) Create(ctx context.Context, videoID int64, lifeguardIDs []int64, supervisorID *int64) (models.AlertLog, error) {
	if len(lifeguardIDs) == 0 {
		return models.AlertLog{}, apperrors.Wrapf(apperrors.ErrValidation, "lifeguard_ids must not be empty")
	}

	entry := models.AlertLog{
		VideoID:      videoID,
		LifeguardIDs: lifeguardIDs,
		SupervisorID: supervisorID,
	}
	err := als.db.QueryRow(ctx, `
		INSERT INTO alert_logs (video_id, lifeguard_ids, supervisor_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		videoID, lifeguardIDs, supervisorID).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return models.AlertLog{}, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return entry, nil
}

// List returns all assignment rows, newest first.
func (als *AlertLogService) List(ctx context.Context) ([]models.AlertLog, error) {
	rows, err := als.db.Query(ctx, `
		SELECT id, video_id, lifeguard_ids, supervisor_id, created_at
		FROM alert_logs
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	defer rows.Close()

	var logs []models.AlertLog
	for rows.Next() {
		var l models.AlertLog
		if err := rows.Scan(&l.ID, &l.VideoID, &l.LifeguardIDs, &l.SupervisorID, &l.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return logs, nil
}
