package eventhandlers

import (
	"context"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaguard-backend/common"
	"aquaguard-backend/models"
)

func TestMain(m *testing.M) {
	common.SetTestLoggerNop()
	m.Run()
}

func TestParseDetectionMessage(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		wantID     int64
		wantConf   float64
		wantOK     bool
	}{
		{"valid", "DrowningFound:7:0.93", 7, 0.93, true},
		{"extra fields tolerated", "DrowningFound:12:0.5:camera-3", 12, 0.5, true},
		{"wrong prefix", "PiracyFound:7:0.93", 0, 0, false},
		{"missing confidence", "DrowningFound:7", 0, 0, false},
		{"non-numeric id", "DrowningFound:seven:0.9", 0, 0, false},
		{"zero id", "DrowningFound:0:0.9", 0, 0, false},
		{"non-numeric confidence", "DrowningFound:7:high", 0, 0, false},
		{"empty", "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, conf, ok := parseDetectionMessage(tt.message)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
				assert.Equal(t, tt.wantConf, conf)
			}
		})
	}
}

// idRows serves a fixed list of lifeguard ids as pgx.Rows.
type idRows struct {
	pgx.Rows
	ids []int64
	pos int
}

func (r *idRows) Close()     {}
func (r *idRows) Err() error { return nil }
func (r *idRows) Next() bool {
	r.pos++
	return r.pos <= len(r.ids)
}
func (r *idRows) Scan(dest ...interface{}) error {
	*(dest[0].(*int64)) = r.ids[r.pos-1]
	return nil
}

type fakeDB struct {
	ids []int64
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return &idRows{ids: f.ids}, nil
}
func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row { panic("unexpected") }
func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	panic("unexpected")
}
func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) { panic("unexpected") }

type fakeAlertLogs struct {
	created []models.AlertLog
	err     error
}

func (f *fakeAlertLogs) Create(_ context.Context, videoID int64, lifeguardIDs []int64, supervisorID *int64) (models.AlertLog, error) {
	if f.err != nil {
		return models.AlertLog{}, f.err
	}
	entry := models.AlertLog{VideoID: videoID, LifeguardIDs: lifeguardIDs, SupervisorID: supervisorID}
	f.created = append(f.created, entry)
	return entry, nil
}

type fakeBus struct {
	drownings []int64
	refreshes int
}

func (f *fakeBus) PublishDrowning(videoID int64) { f.drownings = append(f.drownings, videoID) }
func (f *fakeBus) PublishLogRefresh()            { f.refreshes++ }

func newHandler(db *fakeDB, logs *fakeAlertLogs, bus *fakeBus) *KafkaHandler {
	return &KafkaHandler{
		db:        db,
		alertLogs: logs,
		bus:       bus,
		log:       common.GetLogger("kafka"),
	}
}

func TestProcessMessageAssignsAllLifeguardsAndBroadcasts(t *testing.T) {
	logs := &fakeAlertLogs{}
	bus := &fakeBus{}
	h := newHandler(&fakeDB{ids: []int64{1, 2, 3}}, logs, bus)

	h.processMessage(context.Background(), "DrowningFound:7:0.93")

	require.Len(t, logs.created, 1)
	assert.Equal(t, int64(7), logs.created[0].VideoID)
	assert.Equal(t, []int64{1, 2, 3}, logs.created[0].LifeguardIDs)
	assert.Nil(t, logs.created[0].SupervisorID)
	assert.Equal(t, []int64{7}, bus.drownings)
	assert.Equal(t, 1, bus.refreshes)
}

func TestProcessMessageNoLifeguardsStillBroadcasts(t *testing.T) {
	logs := &fakeAlertLogs{}
	bus := &fakeBus{}
	h := newHandler(&fakeDB{}, logs, bus)

	h.processMessage(context.Background(), "DrowningFound:5:0.8")

	assert.Empty(t, logs.created)
	assert.Equal(t, []int64{5}, bus.drownings)
}

func TestProcessMessageIgnoresGarbage(t *testing.T) {
	logs := &fakeAlertLogs{}
	bus := &fakeBus{}
	h := newHandler(&fakeDB{ids: []int64{1}}, logs, bus)

	h.processMessage(context.Background(), "DrowningFound:not-a-number")
	h.processMessage(context.Background(), "totally unrelated")

	assert.Empty(t, logs.created)
	assert.Empty(t, bus.drownings)
	assert.Zero(t, bus.refreshes)
}
