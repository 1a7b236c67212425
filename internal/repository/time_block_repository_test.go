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

func newTimeBlockMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timeBlockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "period_id", "teacher_id", "room_id", "group_id", "subject_id", "day_of_week", "start_minutes", "end_minutes", "created_at", "updated_at"}).
		AddRow("b1", "2026-1", "t1", "r1", "g1", "s1", "MONDAY", 420, 540, time.Now(), time.Now())
}

func TestTimeBlockRepositoryList(t *testing.T) {
	db, mock, cleanup := newTimeBlockMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, period_id, teacher_id, room_id, group_id, subject_id, day_of_week, start_minutes, end_minutes, created_at, updated_at FROM time_blocks WHERE 1=1 AND period_id = $1 ORDER BY day_of_week ASC, start_minutes ASC LIMIT 20 OFFSET 0")).
		WithArgs("2026-1").
		WillReturnRows(timeBlockRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM time_blocks WHERE 1=1 AND period_id = $1")).
		WithArgs("2026-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	blocks, total, err := repo.List(context.Background(), models.TimeBlockFilter{PeriodID: "2026-1"})
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.Monday, blocks[0].Day)
	assert.Equal(t, "07:00-09:00", blocks[0].TimeRange())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryListByPeriod(t *testing.T) {
	db, mock, cleanup := newTimeBlockMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, period_id, teacher_id, room_id, group_id, subject_id, day_of_week, start_minutes, end_minutes, created_at, updated_at FROM time_blocks WHERE period_id = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("2026-1").
		WillReturnRows(timeBlockRows())

	blocks, err := repo.ListByPeriod(context.Background(), "2026-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "b1", blocks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimeBlockMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec("INSERT INTO time_blocks").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	block := &models.TimeBlock{PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1", Day: models.Monday, Start: 420, End: 540}
	err := repo.Create(context.Background(), block)
	require.NoError(t, err)
	assert.NotEmpty(t, block.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryBulkCreate(t *testing.T) {
	db, mock, cleanup := newTimeBlockMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec("INSERT INTO time_blocks").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	blocks := []models.TimeBlock{
		{PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1", Day: models.Monday, Start: 420, End: 540},
		{PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1", Day: models.Wednesday, Start: 420, End: 540},
	}
	err := repo.BulkCreate(context.Background(), blocks)
	require.NoError(t, err)
	assert.NotEmpty(t, blocks[0].ID)
	assert.NotEmpty(t, blocks[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryDeleteByGroup(t *testing.T) {
	db, mock, cleanup := newTimeBlockMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_blocks WHERE group_id = $1 AND period_id = $2")).
		WithArgs("g1", "2026-1").
		WillReturnResult(sqlmock.NewResult(0, 5))

	affected, err := repo.DeleteByGroup(context.Background(), "g1", "2026-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
