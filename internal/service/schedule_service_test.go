package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unirooms/timetable-api/internal/models"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
)

type mockTimeBlockRepo struct {
	blocks  map[string]models.TimeBlock
	created []models.TimeBlock
	updated *models.TimeBlock
	deleted []string
}

func (m *mockTimeBlockRepo) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, int, error) {
	var list []models.TimeBlock
	for _, b := range m.blocks {
		list = append(list, b)
	}
	return list, len(list), nil
}

func (m *mockTimeBlockRepo) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	if b, ok := m.blocks[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimeBlockRepo) ListByPeriod(ctx context.Context, periodID string) ([]models.TimeBlock, error) {
	var list []models.TimeBlock
	for _, b := range m.blocks {
		if b.PeriodID == periodID {
			list = append(list, b)
		}
	}
	return list, nil
}

func (m *mockTimeBlockRepo) BulkCreate(ctx context.Context, blocks []models.TimeBlock) error {
	if m.blocks == nil {
		m.blocks = make(map[string]models.TimeBlock)
	}
	for i := range blocks {
		if blocks[i].ID == "" {
			blocks[i].ID = "generated"
		}
		m.blocks[blocks[i].ID] = blocks[i]
	}
	m.created = append(m.created, blocks...)
	return nil
}

func (m *mockTimeBlockRepo) Update(ctx context.Context, block *models.TimeBlock) error {
	m.blocks[block.ID] = *block
	m.updated = block
	return nil
}

func (m *mockTimeBlockRepo) Delete(ctx context.Context, id string) error {
	delete(m.blocks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTimeBlockRepo) DeleteByGroup(ctx context.Context, groupID, periodID string) (int64, error) {
	var n int64
	for id, b := range m.blocks {
		if b.GroupID == groupID && b.PeriodID == periodID {
			delete(m.blocks, id)
			n++
		}
	}
	return n, nil
}

func existingBlock(id, teacher, room, group string, day models.DayOfWeek, start, end models.TimeOfDay) models.TimeBlock {
	return models.TimeBlock{
		ID: id, PeriodID: "2026-1", TeacherID: teacher, RoomID: room,
		GroupID: group, SubjectID: "s1", Day: day, Start: start, End: end,
	}
}

func newScheduleService(repo *mockTimeBlockRepo) *ScheduleService {
	return NewScheduleService(repo, nil, nil, validator.New(), zap.NewNop())
}

func TestScheduleServiceCreate(t *testing.T) {
	repo := &mockTimeBlockRepo{}
	svc := newScheduleService(repo)

	blocks, err := svc.Create(context.Background(), CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Days: []string{"MONDAY", "WEDNESDAY"}, StartTime: "07:00", EndTime: "09:00",
	})
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, models.Monday, blocks[0].Day)
	assert.Equal(t, models.Wednesday, blocks[1].Day)
	assert.Len(t, repo.created, 2)
}

func TestScheduleServiceCreateTeacherConflict(t *testing.T) {
	repo := &mockTimeBlockRepo{blocks: map[string]models.TimeBlock{
		"b1": existingBlock("b1", "t1", "r2", "g2", models.Monday, models.NewTimeOfDay(8, 0), models.NewTimeOfDay(10, 0)),
	}}
	svc := newScheduleService(repo)

	_, err := svc.Create(context.Background(), CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Days: []string{"MONDAY"}, StartTime: "07:00", EndTime: "09:00",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestScheduleServiceCreateBackToBack(t *testing.T) {
	repo := &mockTimeBlockRepo{blocks: map[string]models.TimeBlock{
		"b1": existingBlock("b1", "t1", "r1", "g2", models.Monday, models.NewTimeOfDay(7, 0), models.NewTimeOfDay(9, 0)),
	}}
	svc := newScheduleService(repo)

	_, err := svc.Create(context.Background(), CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Days: []string{"MONDAY"}, StartTime: "09:00", EndTime: "11:00",
	})
	require.NoError(t, err)
}

func TestScheduleServiceValidateDryRun(t *testing.T) {
	repo := &mockTimeBlockRepo{blocks: map[string]models.TimeBlock{
		"b1": existingBlock("b1", "t2", "r1", "g2", models.Friday, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(12, 0)),
	}}
	svc := newScheduleService(repo)

	report, err := svc.Validate(context.Background(), CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Days: []string{"FRIDAY"}, StartTime: "11:00", EndTime: "13:00",
	})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, models.ConflictRoom, report.Kind)
	require.NotNil(t, report.Conflicting)
	assert.Equal(t, "b1", report.Conflicting.ID)
	assert.Empty(t, repo.created)
}

func TestScheduleServiceValidateSpanishDays(t *testing.T) {
	repo := &mockTimeBlockRepo{}
	svc := newScheduleService(repo)

	report, err := svc.Validate(context.Background(), CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Days: []string{"miércoles", "sábado"}, StartTime: "07:00", EndTime: "09:00",
	})
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestScheduleServiceUpdateKeepsOwnSlot(t *testing.T) {
	repo := &mockTimeBlockRepo{blocks: map[string]models.TimeBlock{
		"b1": existingBlock("b1", "t1", "r1", "g1", models.Monday, models.NewTimeOfDay(7, 0), models.NewTimeOfDay(9, 0)),
	}}
	svc := newScheduleService(repo)

	updated, err := svc.Update(context.Background(), "b1", UpdateBlockRequest{
		TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Day: "MONDAY", StartTime: "07:00", EndTime: "08:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NewTimeOfDay(8, 0), updated.End)
	require.NotNil(t, repo.updated)
}

func TestScheduleServiceUpdateConflictWithOther(t *testing.T) {
	repo := &mockTimeBlockRepo{blocks: map[string]models.TimeBlock{
		"b1": existingBlock("b1", "t1", "r1", "g1", models.Monday, models.NewTimeOfDay(7, 0), models.NewTimeOfDay(9, 0)),
		"b2": existingBlock("b2", "t2", "r2", "g2", models.Monday, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(11, 0)),
	}}
	svc := newScheduleService(repo)

	_, err := svc.Update(context.Background(), "b1", UpdateBlockRequest{
		TeacherID: "t2", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Day: "MONDAY", StartTime: "10:00", EndTime: "12:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceUpdateNotFound(t *testing.T) {
	svc := newScheduleService(&mockTimeBlockRepo{})

	_, err := svc.Update(context.Background(), "missing", UpdateBlockRequest{
		TeacherID: "t1", RoomID: "r1", GroupID: "g1", SubjectID: "s1",
		Day: "MONDAY", StartTime: "07:00", EndTime: "08:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDeleteGroupBlocks(t *testing.T) {
	repo := &mockTimeBlockRepo{blocks: map[string]models.TimeBlock{
		"b1": existingBlock("b1", "t1", "r1", "g1", models.Monday, models.NewTimeOfDay(7, 0), models.NewTimeOfDay(9, 0)),
		"b2": existingBlock("b2", "t1", "r1", "g1", models.Tuesday, models.NewTimeOfDay(7, 0), models.NewTimeOfDay(9, 0)),
		"b3": existingBlock("b3", "t2", "r2", "g2", models.Monday, models.NewTimeOfDay(7, 0), models.NewTimeOfDay(9, 0)),
	}}
	svc := newScheduleService(repo)

	affected, err := svc.DeleteGroupBlocks(context.Background(), "g1", "2026-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Len(t, repo.blocks, 1)
}

func TestScheduleServiceCreateRejectsInvalidInput(t *testing.T) {
	svc := newScheduleService(&mockTimeBlockRepo{})

	cases := []struct {
		name string
		req  CreateBlocksRequest
	}{
		{"inverted range", CreateBlocksRequest{PeriodID: "p", TeacherID: "t", RoomID: "r", GroupID: "g", SubjectID: "s", Days: []string{"MONDAY"}, StartTime: "09:00", EndTime: "07:00"}},
		{"unknown day", CreateBlocksRequest{PeriodID: "p", TeacherID: "t", RoomID: "r", GroupID: "g", SubjectID: "s", Days: []string{"SUNDAY"}, StartTime: "07:00", EndTime: "09:00"}},
		{"repeated day", CreateBlocksRequest{PeriodID: "p", TeacherID: "t", RoomID: "r", GroupID: "g", SubjectID: "s", Days: []string{"MONDAY", "lunes"}, StartTime: "07:00", EndTime: "09:00"}},
		{"missing teacher", CreateBlocksRequest{PeriodID: "p", RoomID: "r", GroupID: "g", SubjectID: "s", Days: []string{"MONDAY"}, StartTime: "07:00", EndTime: "09:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}
