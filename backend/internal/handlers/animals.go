package handlers

import (
	"net/http"

	"patas-conectadas/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnimalHandler struct {
	animals services.AnimalService
	log     *zap.Logger
}

func NewAnimalHandler(animals services.AnimalService, log *zap.Logger) *AnimalHandler {
	RegisterValidators()
	return &AnimalHandler{animals: animals, log: log}
}

func (h *AnimalHandler) Register(r gin.IRouter) {
	r.POST("/animals", h.CreateAnimal)
	r.GET("/animals", h.ListAnimals)
	r.GET("/animals/:id", h.GetAnimal)
	r.PUT("/animals/:id", h.UpdateAnimal)
	r.DELETE("/animals/:id", h.DeleteAnimal)
}

// animalRequest serves both create and partial update; the service decides
// which fields are mandatory.
type animalRequest struct {
	Name           *string `json:"name"`
	Species        *string `json:"species"`
	Breed          *string `json:"breed"`
	Sex            *string `json:"sex" binding:"omitempty,oneof=M F U"`
	RescueDate     *string `json:"rescue_date"`
	RescueLocation *string `json:"rescue_location"`
	Notes          *string `json:"notes"`
	Status         *string `json:"status"`
}

func (r animalRequest) input() (services.AnimalInput, error) {
	rescueDate, err := parseDate("rescue_date", r.RescueDate)
	if err != nil {
		return services.AnimalInput{}, err
	}
	return services.AnimalInput{
		Name:           r.Name,
		Species:        r.Species,
		Breed:          r.Breed,
		Sex:            r.Sex,
		RescueDate:     rescueDate,
		RescueLocation: r.RescueLocation,
		Notes:          r.Notes,
		Status:         r.Status,
	}, nil
}

func (h *AnimalHandler) bind(c *gin.Context) (services.AnimalInput, bool) {
	var req animalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return services.AnimalInput{}, false
	}
	input, err := req.input()
	if err != nil {
		respondError(c, http.StatusBadRequest, kindValidation, err.Error())
		return services.AnimalInput{}, false
	}
	return input, true
}

func (h *AnimalHandler) CreateAnimal(c *gin.Context) {
	input, ok := h.bind(c)
	if !ok {
		return
	}
	animal, err := h.animals.CreateAnimal(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, animal)
}

func (h *AnimalHandler) ListAnimals(c *gin.Context) {
	animals, err := h.animals.ListAnimals(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, animals)
}

func (h *AnimalHandler) GetAnimal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	animal, err := h.animals.GetAnimal(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, animal)
}

func (h *AnimalHandler) UpdateAnimal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	input, ok := h.bind(c)
	if !ok {
		return
	}
	animal, err := h.animals.UpdateAnimal(c.Request.Context(), id, input)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, animal)
}

func (h *AnimalHandler) DeleteAnimal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.animals.DeleteAnimal(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
