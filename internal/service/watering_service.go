package service

import (
	"context"
	"time"

	"watermyplant/internal/models"
	"watermyplant/internal/observability"
	"watermyplant/internal/repository"
	"watermyplant/internal/validation"
)

// WateringService records and queries watering events for the caller's plants.
type WateringService struct {
	events  repository.WateringRepository
	metrics *observability.Metrics
	now     func() time.Time
}

// RecordWateringInput carries a new event. A nil WateredAt means now.
type RecordWateringInput struct {
	OwnerID        string
	PlantID        string
	WateredAt      *time.Time
	FertilizerUsed bool
	Notes          *string
}

// UpdateWateringInput carries a partial update. A nil field is left unchanged.
type UpdateWateringInput struct {
	OwnerID        string
	EventID        string
	WateredAt      *time.Time
	FertilizerUsed *bool
	Notes          *string
}

// NewWateringService creates a WateringService over the event store.
func NewWateringService(events repository.WateringRepository, metrics *observability.Metrics) *WateringService {
	return &WateringService{
		events:  events,
		metrics: metrics,
		now:     time.Now,
	}
}

// Record logs a watering event. WateredAt defaults to now.
func (s *WateringService) Record(ctx context.Context, in RecordWateringInput) (*models.WateringEvent, error) {
	if in.PlantID == "" {
		return nil, models.NewValidationError("plant_id is required")
	}
	if err := validation.ValidateText("notes", in.Notes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	wateredAt := s.now()
	if in.WateredAt != nil {
		wateredAt = *in.WateredAt
	}
	wateredAt = wateredAt.UTC()

	event, err := s.events.Create(ctx, &models.WateringEvent{
		PlantID:        in.PlantID,
		WateredAt:      wateredAt,
		FertilizerUsed: in.FertilizerUsed,
		Notes:          in.Notes,
	}, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, models.NewNotFoundError("Plant")
	}

	s.metrics.WateringRecorded(event.FertilizerUsed)
	return event, nil
}

// History lists a plant's events, most recent first. It is empty when the
// plant has no events or is not visible to ownerID.
func (s *WateringService) History(ctx context.Context, plantID, ownerID string) ([]models.WateringEvent, error) {
	return s.events.History(ctx, plantID, ownerID)
}

// Last returns nil, nil when the plant has no events or is not visible to ownerID.
func (s *WateringService) Last(ctx context.Context, plantID, ownerID string) (*models.WateringEvent, error) {
	return s.events.Last(ctx, plantID, ownerID)
}

// Update applies a partial update to an event on one of ownerID's plants.
func (s *WateringService) Update(ctx context.Context, in UpdateWateringInput) (*models.WateringEvent, error) {
	fields := make(map[string]any, 3)
	if in.WateredAt != nil {
		fields["watered_at"] = in.WateredAt.UTC()
	}
	if in.FertilizerUsed != nil {
		fields["fertilizer_used"] = *in.FertilizerUsed
	}
	if in.Notes != nil {
		if err := validation.ValidateText("notes", in.Notes); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["notes"] = *in.Notes
	}

	event, err := s.events.Update(ctx, in.EventID, in.OwnerID, fields)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, models.NewNotFoundError("Watering event")
	}
	return event, nil
}

// Delete removes an event on one of ownerID's plants.
func (s *WateringService) Delete(ctx context.Context, eventID, ownerID string) error {
	deleted, err := s.events.Delete(ctx, eventID, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Watering event")
	}
	return nil
}
