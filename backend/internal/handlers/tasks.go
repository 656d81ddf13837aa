package handlers

import (
	"net/http"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService services.TaskService
	log         *zap.Logger
}

func NewTaskHandler(taskService services.TaskService, log *zap.Logger) *TaskHandler {
	RegisterValidators()
	return &TaskHandler{taskService: taskService, log: log}
}

func (h *TaskHandler) Register(r gin.IRouter) {
	r.POST("/tasks", h.CreateTask)
	r.GET("/tasks", h.GetTasks)
	r.GET("/tasks/:id", h.GetTaskByID)
	r.POST("/tasks/:id/assign", h.AssignTask)
	r.PATCH("/tasks/:id/complete", h.CompleteTask)
	r.DELETE("/tasks/:id", h.DeleteTask)
}

type createTaskRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	TargetEntity *string `json:"target_entity"`
	DueDate      *string `json:"due_date"`
	AnimalID     *uint   `json:"animal_id" binding:"omitempty,gt=0"`
}

type assignTaskRequest struct {
	VolunteerID uint `json:"volunteer_id" binding:"required,gt=0"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	dueDate, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		TargetEntity: req.TargetEntity,
		DueDate:      dueDate,
		AnimalID:     req.AnimalID,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewTaskResponse(task))
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	var status *string
	if s, ok := c.GetQuery("status"); ok && s != "" {
		status = &s
	}
	assignedTo, ok := queryID(c, "assigned_to")
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), status, assignedTo)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewTaskResponses(tasks))
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.taskService.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewTaskResponse(task))
}

func (h *TaskHandler) AssignTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.AssignTask(c.Request.Context(), id, req.VolunteerID)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewTaskResponse(task))
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.taskService.CompleteTask(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NewTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
