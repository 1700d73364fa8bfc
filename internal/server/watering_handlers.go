package server

import (
	"time"

	"watermyplant/internal/service"

	"github.com/gofiber/fiber/v2"
)

type recordWateringRequest struct {
	PlantID        string     `json:"plant_id"`
	WateredAt      *time.Time `json:"watered_at"`
	FertilizerUsed bool       `json:"fertilizer_used"`
	Notes          *string    `json:"notes"`
}

type updateWateringRequest struct {
	WateredAt      *time.Time `json:"watered_at"`
	FertilizerUsed *bool      `json:"fertilizer_used"`
	Notes          *string    `json:"notes"`
}

// RecordWatering handles POST /watering
// @Summary Record a watering
// @Description watered_at (RFC 3339) defaults to the current time.
// @Tags watering
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{plant_id=string,watered_at=string,fertilizer_used=boolean,notes=string} true "Watering event"
// @Success 201 {object} models.WateringEvent
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /watering [post]
func (s *Server) RecordWatering(c *fiber.Ctx) error {
	var req recordWateringRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	event, err := s.wateringService.Record(c.UserContext(), service.RecordWateringInput{
		OwnerID:        ownerID(c),
		PlantID:        req.PlantID,
		WateredAt:      req.WateredAt,
		FertilizerUsed: req.FertilizerUsed,
		Notes:          req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

// GetWateringHistory handles GET /watering/plant/:id
// @Summary Watering history of a plant, most recent first
// @Tags watering
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plant ID"
// @Success 200 {array} models.WateringEvent
// @Failure 401 {object} models.ErrorResponse
// @Router /watering/plant/{id} [get]
func (s *Server) GetWateringHistory(c *fiber.Ctx) error {
	events, err := s.wateringService.History(c.UserContext(), c.Params("id"), ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// GetLastWatering handles GET /watering/plant/:id/last
// @Summary Most recent watering of a plant
// @Tags watering
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plant ID"
// @Success 200 {object} models.WateringEvent
// @Success 204 "No watering recorded"
// @Router /watering/plant/{id}/last [get]
func (s *Server) GetLastWatering(c *fiber.Ctx) error {
	event, err := s.wateringService.Last(c.UserContext(), c.Params("id"), ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	if event == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(event)
}

// UpdateWatering handles PUT /watering/:id
// @Summary Update a watering event
// @Description Partial update; null or absent fields keep their value.
// @Tags watering
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Watering event ID"
// @Param request body object{watered_at=string,fertilizer_used=boolean,notes=string} true "Fields to change"
// @Success 200 {object} models.WateringEvent
// @Failure 404 {object} models.ErrorResponse
// @Router /watering/{id} [put]
func (s *Server) UpdateWatering(c *fiber.Ctx) error {
	var req updateWateringRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	event, err := s.wateringService.Update(c.UserContext(), service.UpdateWateringInput{
		OwnerID:        ownerID(c),
		EventID:        c.Params("id"),
		WateredAt:      req.WateredAt,
		FertilizerUsed: req.FertilizerUsed,
		Notes:          req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// DeleteWatering handles DELETE /watering/:id
// @Summary Delete a watering event
// @Tags watering
// @Security BearerAuth
// @Param id path string true "Watering event ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /watering/{id} [delete]
func (s *Server) DeleteWatering(c *fiber.Ctx) error {
	if err := s.wateringService.Delete(c.UserContext(), c.Params("id"), ownerID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
