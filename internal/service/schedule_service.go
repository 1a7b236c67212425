package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/internal/timetable"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
)

type timeBlockRepository interface {
	List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, int, error)
	FindByID(ctx context.Context, id string) (*models.TimeBlock, error)
	ListByPeriod(ctx context.Context, periodID string) ([]models.TimeBlock, error)
	BulkCreate(ctx context.Context, blocks []models.TimeBlock) error
	Update(ctx context.Context, block *models.TimeBlock) error
	Delete(ctx context.Context, id string) error
	DeleteByGroup(ctx context.Context, groupID, periodID string) (int64, error)
}

// CreateBlocksRequest proposes one weekly assignment: the same teacher, room,
// group and time range repeated over the listed days. Each day becomes one
// time block.
type CreateBlocksRequest struct {
	PeriodID  string   `json:"period_id" validate:"required"`
	TeacherID string   `json:"teacher_id" validate:"required"`
	RoomID    string   `json:"room_id" validate:"required"`
	GroupID   string   `json:"group_id" validate:"required"`
	SubjectID string   `json:"subject_id" validate:"required"`
	Days      []string `json:"days" validate:"required,min=1"`
	StartTime string   `json:"start_time" validate:"required"`
	EndTime   string   `json:"end_time" validate:"required"`
}

// UpdateBlockRequest rewrites a single existing block.
type UpdateBlockRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
	GroupID   string `json:"group_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ScheduleService coordinates block persistence around the conflict engine.
// Every write runs the proposal against the period's full block snapshot
// before anything touches the database.
type ScheduleService struct {
	repo      timeBlockRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo timeBlockRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns time blocks with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, *models.Pagination, error) {
	blocks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return blocks, pagination, nil
}

// Get loads a single block by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.TimeBlock, error) {
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	return block, nil
}

// Create validates the proposed assignment against the period snapshot and
// persists every day's block atomically when it comes back clean.
func (s *ScheduleService) Create(ctx context.Context, req CreateBlocksRequest) ([]models.TimeBlock, error) {
	blocks, err := s.buildBlocks(req)
	if err != nil {
		return nil, err
	}

	report, err := s.validateAgainstPeriod(ctx, blocks, req.PeriodID, "")
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, s.conflictError(report)
	}

	if err := s.repo.BulkCreate(ctx, blocks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time blocks")
	}

	s.invalidateOccupancy(ctx, req.PeriodID)
	s.logger.Info("time blocks created",
		zap.String("period_id", req.PeriodID),
		zap.String("group_id", req.GroupID),
		zap.Int("blocks", len(blocks)))
	return blocks, nil
}

// Validate runs the conflict check without persisting anything. The report is
// a normal outcome either way, so a taken slot never surfaces as an error.
func (s *ScheduleService) Validate(ctx context.Context, req CreateBlocksRequest) (models.ConflictReport, error) {
	blocks, err := s.buildBlocks(req)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrValidation.Code {
			return models.ConflictReport{Kind: models.ConflictValidation, Detail: appErr.Message}, nil
		}
		return models.ConflictReport{}, err
	}
	return s.validateAgainstPeriod(ctx, blocks, req.PeriodID, "")
}

// Update rewrites one block, excluding it from the conflict scan so a block
// can keep (or shrink within) its own slot.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateBlockRequest) (*models.TimeBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time block payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}

	day, start, end, err := parseSlot(req.Day, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	updated := models.TimeBlock{
		ID:        existing.ID,
		PeriodID:  existing.PeriodID,
		TeacherID: req.TeacherID,
		RoomID:    req.RoomID,
		GroupID:   req.GroupID,
		SubjectID: req.SubjectID,
		Day:       day,
		Start:     start,
		End:       end,
		CreatedAt: existing.CreatedAt,
	}

	report, err := s.validateAgainstPeriod(ctx, []models.TimeBlock{updated}, existing.PeriodID, existing.ID)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, s.conflictError(report)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time block")
	}

	s.invalidateOccupancy(ctx, existing.PeriodID)
	return &updated, nil
}

// Delete removes one block.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time block")
	}

	s.invalidateOccupancy(ctx, existing.PeriodID)
	return nil
}

// DeleteGroupBlocks drops a group's entire schedule for one period.
func (s *ScheduleService) DeleteGroupBlocks(ctx context.Context, groupID, periodID string) (int64, error) {
	if groupID == "" || periodID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "group_id and period_id are required")
	}
	affected, err := s.repo.DeleteByGroup(ctx, groupID, periodID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group time blocks")
	}
	if affected > 0 {
		s.invalidateOccupancy(ctx, periodID)
	}
	return affected, nil
}

// Grid projects a period's blocks, narrowed by the filter, onto the weekly
// day-by-hour matrix the dashboard renders.
func (s *ScheduleService) Grid(ctx context.Context, filter models.TimeBlockFilter, firstHour, lastHour int) (timetable.Grid, error) {
	if filter.PeriodID == "" {
		return timetable.Grid{}, appErrors.Clone(appErrors.ErrValidation, "period_id is required")
	}
	all, err := s.repo.ListByPeriod(ctx, filter.PeriodID)
	if err != nil {
		return timetable.Grid{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time blocks")
	}
	blocks := make([]models.TimeBlock, 0, len(all))
	for _, b := range all {
		if filter.TeacherID != "" && b.TeacherID != filter.TeacherID {
			continue
		}
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.GroupID != "" && b.GroupID != filter.GroupID {
			continue
		}
		blocks = append(blocks, b)
	}
	if firstHour == 0 && lastHour == 0 {
		firstHour, lastHour = 7, 22
	}
	return timetable.Project(blocks, firstHour, lastHour), nil
}

func (s *ScheduleService) buildBlocks(req CreateBlocksRequest) ([]models.TimeBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time block payload")
	}

	blocks := make([]models.TimeBlock, 0, len(req.Days))
	seen := make(map[models.DayOfWeek]bool, len(req.Days))
	for _, raw := range req.Days {
		day, start, end, err := parseSlot(raw, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		if seen[day] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %s repeated in request", day))
		}
		seen[day] = true
		blocks = append(blocks, models.TimeBlock{
			PeriodID:  req.PeriodID,
			TeacherID: req.TeacherID,
			RoomID:    req.RoomID,
			GroupID:   req.GroupID,
			SubjectID: req.SubjectID,
			Day:       day,
			Start:     start,
			End:       end,
		})
	}
	return blocks, nil
}

func (s *ScheduleService) validateAgainstPeriod(ctx context.Context, proposed []models.TimeBlock, periodID, excludeID string) (models.ConflictReport, error) {
	existing, err := s.repo.ListByPeriod(ctx, periodID)
	if err != nil {
		return models.ConflictReport{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period time blocks")
	}
	return timetable.Validate(proposed, existing, excludeID), nil
}

func (s *ScheduleService) invalidateOccupancy(ctx context.Context, periodID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, occupancyCachePattern(periodID)); err != nil {
		s.logger.Warn("occupancy cache invalidation failed", zap.String("period_id", periodID), zap.Error(err))
	}
}

func parseSlot(rawDay, rawStart, rawEnd string) (models.DayOfWeek, models.TimeOfDay, models.TimeOfDay, error) {
	day, ok := models.ParseDayOfWeek(rawDay)
	if !ok {
		return "", 0, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid day %q", rawDay))
	}
	start, err := models.ParseTimeOfDay(rawStart)
	if err != nil {
		return "", 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid start time %q", rawStart))
	}
	end, err := models.ParseTimeOfDay(rawEnd)
	if err != nil {
		return "", 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid end time %q", rawEnd))
	}
	if !start.Before(end) {
		return "", 0, 0, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	return day, start, end, nil
}

func (s *ScheduleService) conflictError(report models.ConflictReport) error {
	if s.metrics != nil {
		s.metrics.RecordConflict(report.Kind)
	}
	if report.Kind == models.ConflictValidation {
		return appErrors.Clone(appErrors.ErrValidation, report.Detail)
	}
	domainErr := &models.ScheduleConflictError{Report: report}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("schedule conflict: %s", report.Detail))
}
