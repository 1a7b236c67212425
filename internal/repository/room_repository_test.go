package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirooms/timetable-api/internal/models"
)

func newRoomMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func roomRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "building", "capacity", "opens_minutes", "closes_minutes", "active", "created_at", "updated_at"}).
		AddRow("r1", "Lab 101", "Engineering", 30, 420, 1320, true, time.Now(), time.Now())
}

func TestRoomRepositoryList(t *testing.T) {
	db, mock, cleanup := newRoomMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, building, capacity, opens_minutes, closes_minutes, active, created_at, updated_at FROM rooms WHERE 1=1 AND active = $1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs(true).
		WillReturnRows(roomRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms WHERE 1=1 AND active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rooms, total, err := repo.List(context.Background(), models.RoomFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "07:00", rooms[0].OpensAt.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRoomMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, building, capacity, opens_minutes, closes_minutes, active, created_at, updated_at FROM rooms WHERE active = TRUE ORDER BY name ASC")).
		WillReturnRows(roomRows())

	rooms, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "r1", rooms[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRoomMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec("INSERT INTO rooms").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	room := &models.Room{Name: "Lab 101", Building: "Engineering", Capacity: 30, OpensAt: 420, ClosesAt: 1320, Active: true}
	err := repo.Create(context.Background(), room)
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRoomMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET active = FALSE, updated_at = $2 WHERE id = $1")).
		WithArgs("r1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Deactivate(context.Background(), "r1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
