package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unirooms/timetable-api/internal/models"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Deactivate(ctx context.Context, id string) error
}

// CreateRoomRequest describes payload for registering a room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required"`
	Building string `json:"building" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
}

// UpdateRoomRequest updates an existing room.
type UpdateRoomRequest struct {
	Name     string `json:"name" validate:"required"`
	Building string `json:"building" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	Active   *bool  `json:"active"`
}

// RoomService manages teaching spaces.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService instantiates RoomService.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns rooms with pagination metadata.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create registers a new room.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	opens, closes, err := parseOpenHours(req.OpensAt, req.ClosesAt)
	if err != nil {
		return nil, err
	}

	room := models.Room{
		Name:     req.Name,
		Building: req.Building,
		Capacity: req.Capacity,
		OpensAt:  opens,
		ClosesAt: closes,
		Active:   true,
	}
	if err := s.repo.Create(ctx, &room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return &room, nil
}

// Update modifies an existing room.
func (s *RoomService) Update(ctx context.Context, id string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	opens, closes, err := parseOpenHours(req.OpensAt, req.ClosesAt)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Name = req.Name
	updated.Building = req.Building
	updated.Capacity = req.Capacity
	updated.OpensAt = opens
	updated.ClosesAt = closes
	if req.Active != nil {
		updated.Active = *req.Active
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return &updated, nil
}

// Deactivate retires a room while keeping its block history queryable.
func (s *RoomService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate room")
	}
	return nil
}

// parseOpenHours tolerates empty open hours; occupancy then falls back to the
// configured default weekly denominator for the room.
func parseOpenHours(rawOpens, rawCloses string) (models.TimeOfDay, models.TimeOfDay, error) {
	if rawOpens == "" && rawCloses == "" {
		return 0, 0, nil
	}
	opens, err := models.ParseTimeOfDay(rawOpens)
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid opens_at %q", rawOpens))
	}
	closes, err := models.ParseTimeOfDay(rawCloses)
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid closes_at %q", rawCloses))
	}
	if !opens.Before(closes) {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "opens_at must be before closes_at")
	}
	return opens, closes, nil
}
