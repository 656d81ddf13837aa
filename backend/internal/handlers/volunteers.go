package handlers

import (
	"net/http"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VolunteerHandler struct {
	volunteers services.VolunteerService
	tasks      services.TaskService
	log        *zap.Logger
}

func NewVolunteerHandler(volunteers services.VolunteerService, tasks services.TaskService, log *zap.Logger) *VolunteerHandler {
	RegisterValidators()
	return &VolunteerHandler{volunteers: volunteers, tasks: tasks, log: log}
}

func (h *VolunteerHandler) Register(r gin.IRouter) {
	r.POST("/volunteers", h.CreateVolunteer)
	r.GET("/volunteers", h.ListVolunteers)
	r.GET("/volunteers/:id", h.GetVolunteer)
	r.PUT("/volunteers/:id", h.UpdateVolunteer)
	r.DELETE("/volunteers/:id", h.DeleteVolunteer)
	r.GET("/volunteers/:id/tasks", h.ListVolunteerTasks)
}

type createVolunteerRequest struct {
	Name   string   `json:"name" binding:"required"`
	CPF    string   `json:"cpf" binding:"required,cpf"`
	Email  string   `json:"email" binding:"required,email"`
	Phone  string   `json:"phone" binding:"required"`
	Skills []string `json:"skills"`
}

type updateVolunteerRequest struct {
	Name   *string   `json:"name" binding:"omitempty,min=1"`
	CPF    *string   `json:"cpf" binding:"omitempty,cpf"`
	Email  *string   `json:"email" binding:"omitempty,email"`
	Phone  *string   `json:"phone" binding:"omitempty,min=1"`
	Skills *[]string `json:"skills"`
}

func (h *VolunteerHandler) CreateVolunteer(c *gin.Context) {
	var req createVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.volunteers.CreateVolunteer(c.Request.Context(), services.CreateVolunteerInput{
		Name:   req.Name,
		CPF:    req.CPF,
		Email:  req.Email,
		Phone:  req.Phone,
		Skills: req.Skills,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *VolunteerHandler) ListVolunteers(c *gin.Context) {
	list, err := h.volunteers.ListVolunteers(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *VolunteerHandler) GetVolunteer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.volunteers.GetVolunteer(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VolunteerHandler) UpdateVolunteer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.volunteers.UpdateVolunteer(c.Request.Context(), id, models.VolunteerPatch{
		Name:   req.Name,
		CPF:    req.CPF,
		Email:  req.Email,
		Phone:  req.Phone,
		Skills: req.Skills,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VolunteerHandler) DeleteVolunteer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.volunteers.DeleteVolunteer(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VolunteerHandler) ListVolunteerTasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListTasksForVolunteer(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewTaskResponses(tasks))
}
