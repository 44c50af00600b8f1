package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/smallnest/langfix/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trailColumns = []string{"id", "session_id", "instruction", "outcome", "attempts", "record", "error", "metadata", "timestamp"}

const (
	selectByID      = `(?s)SELECT id, session_id, .+ FROM trails\s+WHERE id = \$1`
	selectBySession = `(?s)SELECT id, session_id, .+ FROM trails\s+WHERE session_id = \$1`
)

func sampleTrail() *store.Trail {
	return &store.Trail{
		ID:          "trail-1",
		SessionID:   "flower-copy",
		Instruction: "write flower copy",
		Attempts: []store.AttemptRecord{
			{Index: 0, Raw: "oops", Failure: "structural", Error: "failed to parse output: invalid JSON"},
			{Index: 1, Raw: `{"description":"Roses at dusk for a quiet date","reason":"A fair price for love"}`},
		},
		Outcome:   store.OutcomeSuccess,
		Record:    map[string]any{"reason": "A fair price for love"},
		Metadata:  map[string]any{"model": "gpt-3.5-turbo"},
		Timestamp: time.Now(),
	}
}

func TestPostgresTrailStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "")
	trail := sampleTrail()

	attemptsJSON, _ := json.Marshal(trail.Attempts)
	recordJSON, _ := json.Marshal(trail.Record)
	metadataJSON, _ := json.Marshal(trail.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trails")).
		WithArgs(
			trail.ID,
			trail.SessionID,
			trail.Instruction,
			"success",
			attemptsJSON,
			recordJSON,
			"",
			metadataJSON,
			trail.Timestamp,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, ts.Save(context.Background(), trail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_Save_Errors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")

	err = ts.Save(context.Background(), &store.Trail{})
	assert.Error(t, err)

	trail := sampleTrail()
	trail.Metadata = map[string]any{"bad": make(chan int)}
	err = ts.Save(context.Background(), trail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal metadata")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trails")).
		WillReturnError(errors.New("connection reset"))
	err = ts.Save(context.Background(), sampleTrail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save trail")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")
	trail := sampleTrail()

	attemptsJSON, _ := json.Marshal(trail.Attempts)
	recordJSON, _ := json.Marshal(trail.Record)
	metadataJSON, _ := json.Marshal(trail.Metadata)
	errText := ""

	rows := pgxmock.NewRows(trailColumns).
		AddRow(trail.ID, trail.SessionID, trail.Instruction, "success", attemptsJSON, recordJSON, &errText, metadataJSON, trail.Timestamp)

	mock.ExpectQuery(selectByID).
		WithArgs(trail.ID).
		WillReturnRows(rows)

	loaded, err := ts.Load(context.Background(), trail.ID)
	require.NoError(t, err)
	assert.Equal(t, trail.ID, loaded.ID)
	assert.Equal(t, store.OutcomeSuccess, loaded.Outcome)
	assert.Equal(t, trail.Attempts, loaded.Attempts)
	assert.Equal(t, "A fair price for love", loaded.Record["reason"])
	assert.Equal(t, "gpt-3.5-turbo", loaded.Metadata["model"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")

	mock.ExpectQuery(selectByID).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	loaded, err := ts.Load(context.Background(), "missing")
	assert.Nil(t, loaded)
	assert.ErrorIs(t, err, store.ErrTrailNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_Load_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")

	mock.ExpectQuery(selectByID).
		WithArgs("trail-1").
		WillReturnError(errors.New("database connection failed"))

	_, err = ts.Load(context.Background(), "trail-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load trail")
	assert.NotErrorIs(t, err, store.ErrTrailNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")
	now := time.Now()

	rows := pgxmock.NewRows(trailColumns).
		AddRow("a", "s1", "i", "exhausted", []byte(`[]`), []byte(nil), (*string)(nil), []byte(nil), now).
		AddRow("b", "s1", "i", "success", []byte(`[{"index":0,"instruction":"i","raw":"{}","duration":0}]`), []byte(`{"k":"v"}`), (*string)(nil), []byte(nil), now.Add(time.Second))

	mock.ExpectQuery(selectBySession).
		WithArgs("s1").
		WillReturnRows(rows)

	list, err := ts.List(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, store.OutcomeExhausted, list[0].Outcome)
	assert.Nil(t, list[0].Record)
	assert.Equal(t, "b", list[1].ID)
	assert.Len(t, list[1].Attempts, 1)
	assert.Equal(t, "v", list[1].Record["k"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_List_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")

	mock.ExpectQuery(selectBySession).
		WithArgs("none").
		WillReturnRows(pgxmock.NewRows(trailColumns))

	list, err := ts.List(context.Background(), "none")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_DeleteAndClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "trails")
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trails WHERE id = $1")).
		WithArgs("trail-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trails WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trails WHERE session_id = $1")).
		WithArgs("s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	assert.NoError(t, ts.Delete(ctx, "trail-1"))
	assert.ErrorIs(t, ts.Delete(ctx, "missing"), store.ErrTrailNotFound)
	assert.NoError(t, ts.Clear(ctx, "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := NewPostgresTrailStoreWithPool(mock, "flower_trails")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS flower_trails")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, ts.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
