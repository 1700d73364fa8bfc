package server

import (
	"watermyplant/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPlantRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
}

// updatePlantRequest fields left null or absent are not changed.
type updatePlantRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

// CreatePlant handles POST /plants
// @Summary Create a plant
// @Tags plants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,type=string,description=string} true "Plant"
// @Success 201 {object} models.Plant
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /plants [post]
func (s *Server) CreatePlant(c *fiber.Ctx) error {
	var req createPlantRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	plant, err := s.plantService.CreatePlant(c.UserContext(), service.CreatePlantInput{
		OwnerID:     ownerID(c),
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(plant)
}

// ListPlants handles GET /plants
// @Summary List the caller's plants
// @Tags plants
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Plant
// @Failure 401 {object} models.ErrorResponse
// @Router /plants [get]
func (s *Server) ListPlants(c *fiber.Ctx) error {
	plants, err := s.plantService.ListPlants(c.UserContext(), ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plants)
}

// GetPlant handles GET /plants/:id
// @Summary Get a plant
// @Tags plants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plant ID"
// @Success 200 {object} models.Plant
// @Failure 404 {object} models.ErrorResponse
// @Router /plants/{id} [get]
func (s *Server) GetPlant(c *fiber.Ctx) error {
	plant, err := s.plantService.GetPlant(c.UserContext(), c.Params("id"), ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plant)
}

// UpdatePlant handles PUT /plants/:id
// @Summary Update a plant
// @Description Partial update; null or absent fields keep their value.
// @Tags plants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plant ID"
// @Param request body object{name=string,type=string,description=string} true "Fields to change"
// @Success 200 {object} models.Plant
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /plants/{id} [put]
func (s *Server) UpdatePlant(c *fiber.Ctx) error {
	var req updatePlantRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	plant, err := s.plantService.UpdatePlant(c.UserContext(), service.UpdatePlantInput{
		OwnerID:     ownerID(c),
		PlantID:     c.Params("id"),
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plant)
}

// DeletePlant handles DELETE /plants/:id
// @Summary Delete a plant and its watering history
// @Tags plants
// @Security BearerAuth
// @Param id path string true "Plant ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /plants/{id} [delete]
func (s *Server) DeletePlant(c *fiber.Ctx) error {
	if err := s.plantService.DeletePlant(c.UserContext(), c.Params("id"), ownerID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
