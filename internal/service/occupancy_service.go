package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/internal/timetable"
	"github.com/unirooms/timetable-api/pkg/config"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
)

type occupancyRoomRepository interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ListActive(ctx context.Context) ([]models.Room, error)
}

type occupancyBlockRepository interface {
	ListByRoom(ctx context.Context, roomID, periodID string) ([]models.TimeBlock, error)
	ListByPeriod(ctx context.Context, periodID string) ([]models.TimeBlock, error)
}

// OccupancyService derives room utilisation from the live block collection.
// Results are recomputed on demand; Redis only shortcuts repeated reads and
// is invalidated on every block mutation.
type OccupancyService struct {
	rooms   occupancyRoomRepository
	blocks  occupancyBlockRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger

	shifts             timetable.ShiftBounds
	schedulingDays     int
	defaultWeeklyHours float64
}

// NewOccupancyService constructs an occupancy service from the campus policy
// configuration. Malformed boundary strings fall back to the default shift
// layout.
func NewOccupancyService(rooms occupancyRoomRepository, blocks occupancyBlockRepository, cache *CacheService, metrics *MetricsService, cfg config.OccupancyConfig, logger *zap.Logger) *OccupancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	days := cfg.SchedulingDays
	if days <= 0 {
		days = len(models.Weekdays)
	}
	weekly := cfg.DefaultWeeklyHours
	if weekly <= 0 {
		weekly = 96
	}
	return &OccupancyService{
		rooms:              rooms,
		blocks:             blocks,
		cache:              cache,
		metrics:            metrics,
		logger:             logger,
		shifts:             parseShiftBounds(cfg, logger),
		schedulingDays:     days,
		defaultWeeklyHours: weekly,
	}
}

// RoomOccupancy computes one room's weekly occupancy for a period. The
// boolean reports whether the record came from cache.
func (s *OccupancyService) RoomOccupancy(ctx context.Context, roomID, periodID string) (*models.OccupancyRecord, bool, error) {
	if periodID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "period_id is required")
	}

	cacheKey := occupancyCacheKey(periodID, "room", roomID)
	var cached models.OccupancyRecord
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	start := time.Now()
	roomBlocks, err := s.blocks.ListByRoom(ctx, roomID, periodID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room time blocks")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("occupancy_room_blocks", time.Since(start))
	}

	record := s.compute(*room, roomBlocks, periodID)
	if err := s.cache.Set(ctx, cacheKey, record, 0); err != nil {
		s.logger.Warn("cache room occupancy", zap.Error(err))
	}
	return &record, false, nil
}

// Summary rolls occupancy up across every active room for one period.
// includeRooms attaches the per-room records to the payload.
func (s *OccupancyService) Summary(ctx context.Context, periodID string, includeRooms bool) (*models.OccupancySummary, bool, error) {
	if periodID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "period_id is required")
	}

	cacheKey := occupancyCacheKey(periodID, "summary", fmt.Sprintf("rooms=%t", includeRooms))
	var cached models.OccupancySummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	start := time.Now()
	periodBlocks, err := s.blocks.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period time blocks")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("occupancy_period_blocks", time.Since(start))
	}

	byRoom := make(map[string][]models.TimeBlock, len(rooms))
	for _, b := range periodBlocks {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	records := make([]models.OccupancyRecord, 0, len(rooms))
	for _, room := range rooms {
		records = append(records, s.compute(room, byRoom[room.ID], periodID))
	}

	summary := timetable.Summarize(records)
	summary.PeriodID = periodID
	summary.GeneratedAt = time.Now().UTC()
	if includeRooms {
		summary.Rooms = records
	}

	if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
		s.logger.Warn("cache occupancy summary", zap.Error(err))
	}
	return &summary, false, nil
}

// RoomRecords returns the per-room occupancy records for a period, computed
// without the summary envelope. The export service builds reports from it.
func (s *OccupancyService) RoomRecords(ctx context.Context, periodID string) ([]models.OccupancyRecord, error) {
	summary, _, err := s.Summary(ctx, periodID, true)
	if err != nil {
		return nil, err
	}
	return summary.Rooms, nil
}

// SystemMetrics returns the instrumentation snapshot.
func (s *OccupancyService) SystemMetrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{}
	}
	return s.metrics.Snapshot()
}

func (s *OccupancyService) compute(room models.Room, blocks []models.TimeBlock, periodID string) models.OccupancyRecord {
	available := s.defaultWeeklyHours
	if room.OpensAt.Before(room.ClosesAt) {
		available = room.OpensAt.HoursUntil(room.ClosesAt) * float64(s.schedulingDays)
	}

	record := timetable.ComputeOccupancy(blocks, timetable.OccupancyConfig{
		TotalAvailableHours: available,
		SchedulingDays:      s.schedulingDays,
		Shifts:              s.shifts,
	})
	record.RoomID = room.ID
	record.PeriodID = periodID
	record.GeneratedAt = time.Now().UTC()
	return record
}

func parseShiftBounds(cfg config.OccupancyConfig, logger *zap.Logger) timetable.ShiftBounds {
	bounds := timetable.DefaultShiftBounds()
	parse := func(raw string, dest *models.TimeOfDay) {
		if raw == "" {
			return
		}
		t, err := models.ParseTimeOfDay(raw)
		if err != nil {
			logger.Warn("invalid shift boundary, using default", zap.String("value", raw), zap.Error(err))
			return
		}
		*dest = t
	}
	parse(cfg.MorningStart, &bounds.MorningStart)
	parse(cfg.AfternoonStart, &bounds.AfternoonStart)
	parse(cfg.EveningStart, &bounds.EveningStart)
	parse(cfg.EveningEnd, &bounds.EveningEnd)
	return bounds
}

func occupancyCacheKey(periodID string, parts ...string) string {
	key := "occupancy:" + periodID
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func occupancyCachePattern(periodID string) string {
	return "occupancy:" + periodID + ":*"
}
