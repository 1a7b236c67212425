package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unirooms/timetable-api/internal/models"
)

const timeBlockColumns = "id, period_id, teacher_id, room_id, group_id, subject_id, day_of_week, start_minutes, end_minutes, created_at, updated_at"

// TimeBlockRepository provides persistence for weekly time blocks.
type TimeBlockRepository struct {
	db *sqlx.DB
}

// NewTimeBlockRepository creates a new time block repository.
func NewTimeBlockRepository(db *sqlx.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

// List returns time blocks with optional filtering and pagination.
func (r *TimeBlockRepository) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, int, error) {
	base := "FROM time_blocks WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "day_of_week"
	}
	allowedSorts := map[string]bool{
		"day_of_week":   true,
		"start_minutes": true,
		"room_id":       true,
		"created_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_minutes ASC LIMIT %d OFFSET %d", timeBlockColumns, base, sortBy, order, size, offset)
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list time blocks: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count time blocks: %w", err)
	}

	return blocks, total, nil
}

// FindByID loads a time block by id.
func (r *TimeBlockRepository) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM time_blocks WHERE id = $1", timeBlockColumns)
	var blk models.TimeBlock
	if err := r.db.GetContext(ctx, &blk, query, id); err != nil {
		return nil, err
	}
	return &blk, nil
}

// ListByPeriod returns the full block collection of one academic period, the
// snapshot every conflict validation runs against. Ordering is fixed so that
// validation reports are reproducible.
func (r *TimeBlockRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.TimeBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM time_blocks WHERE period_id = $1 ORDER BY created_at ASC, id ASC", timeBlockColumns)
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, periodID); err != nil {
		return nil, fmt.Errorf("list time blocks by period: %w", err)
	}
	return blocks, nil
}

// ListByRoom returns a room's blocks within a period ordered by day/time.
func (r *TimeBlockRepository) ListByRoom(ctx context.Context, roomID, periodID string) ([]models.TimeBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM time_blocks WHERE room_id = $1 AND period_id = $2 ORDER BY day_of_week ASC, start_minutes ASC", timeBlockColumns)
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, roomID, periodID); err != nil {
		return nil, fmt.Errorf("list time blocks by room: %w", err)
	}
	return blocks, nil
}

// Create stores a new time block record.
func (r *TimeBlockRepository) Create(ctx context.Context, block *models.TimeBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}
	block.UpdatedAt = now

	const query = `INSERT INTO time_blocks (id, period_id, teacher_id, room_id, group_id, subject_id, day_of_week, start_minutes, end_minutes, created_at, updated_at) VALUES (:id, :period_id, :teacher_id, :room_id, :group_id, :subject_id, :day_of_week, :start_minutes, :end_minutes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create time block: %w", err)
	}
	return nil
}

// BulkCreate inserts the blocks of one confirmed assignment within a single
// transaction, so a multi-day proposal lands atomically.
func (r *TimeBlockRepository) BulkCreate(ctx context.Context, blocks []models.TimeBlock) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create time blocks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range blocks {
		payload := blocks[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO time_blocks (id, period_id, teacher_id, room_id, group_id, subject_id, day_of_week, start_minutes, end_minutes, created_at, updated_at) VALUES (:id, :period_id, :teacher_id, :room_id, :group_id, :subject_id, :day_of_week, :start_minutes, :end_minutes, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert time block: %w", err)
		}
		blocks[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create time blocks: %w", err)
	}
	return nil
}

// Update modifies a time block record.
func (r *TimeBlockRepository) Update(ctx context.Context, block *models.TimeBlock) error {
	block.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_blocks SET period_id = :period_id, teacher_id = :teacher_id, room_id = :room_id, group_id = :group_id, subject_id = :subject_id, day_of_week = :day_of_week, start_minutes = :start_minutes, end_minutes = :end_minutes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("update time block: %w", err)
	}
	return nil
}

// Delete removes a time block by id.
func (r *TimeBlockRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_blocks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time block: %w", err)
	}
	return nil
}

// DeleteByGroup removes a group's entire schedule for a period and reports
// how many blocks were dropped.
func (r *TimeBlockRepository) DeleteByGroup(ctx context.Context, groupID, periodID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_blocks WHERE group_id = $1 AND period_id = $2`, groupID, periodID)
	if err != nil {
		return 0, fmt.Errorf("delete time blocks by group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete time blocks by group: %w", err)
	}
	return affected, nil
}
