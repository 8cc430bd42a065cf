package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	taskapp "github.com/investorcrm/backend/internal/application/task"
)

// TaskHandler handles follow-up tasks
type TaskHandler struct {
	BaseHandler
	taskService *taskapp.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *taskapp.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Create godoc
// @Summary      Create a task
// @Description  Tasks default to the creator as assignee and medium priority
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        request body taskapp.CreateTaskRequest true "Task"
// @Success      201 {object} dto.Response{data=taskapp.TaskResponse}
// @Security     BearerAuth
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req taskapp.CreateTaskRequest
	if !h.bindJSON(c, &req) {
		return
	}

	t, err := h.taskService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.taskService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// List godoc
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        status      query string false "open, in_progress, done, cancelled"
// @Param        priority    query string false "low, medium, high"
// @Param        assignee_id query string false "Assignee" format(uuid)
// @Param        investor_id query string false "Investor" format(uuid)
// @Param        meeting_id  query string false "Source meeting" format(uuid)
// @Param        due_before  query string false "RFC 3339 timestamp"
// @Param        open        query bool   false "Only open or in-progress tasks"
// @Success      200 {object} dto.Response{data=[]taskapp.TaskResponse}
// @Security     BearerAuth
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	items, total, err := h.taskService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListMine lists the caller's tasks
func (h *TaskHandler) ListMine(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	items, total, err := h.taskService.ListMine(c.Request.Context(), tenantID, userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListOverdue lists open tasks past their due date
func (h *TaskHandler) ListOverdue(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	items, err := h.taskService.ListOverdue(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *TaskHandler) listFilter(c *gin.Context) (taskapp.ListFilter, bool) {
	var filter taskapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return filter, false
	}
	var ok bool
	if filter.AssigneeID, ok = h.queryUUID(c, "assignee_id"); !ok {
		return filter, false
	}
	if filter.InvestorID, ok = h.queryUUID(c, "investor_id"); !ok {
		return filter, false
	}
	if filter.MeetingID, ok = h.queryUUID(c, "meeting_id"); !ok {
		return filter, false
	}
	defaultPaging(&filter.Page, &filter.PageSize)
	return filter, true
}

func (h *TaskHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req taskapp.UpdateTaskRequest
	if !h.bindJSON(c, &req) {
		return
	}

	t, err := h.taskService.Update(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

type taskTransition func(ctx context.Context, tenantID, userID, id uuid.UUID, req taskapp.TransitionRequest) (*taskapp.TaskResponse, error)

func (h *TaskHandler) transition(c *gin.Context, apply taskTransition) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req taskapp.TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	t, err := apply(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Start moves an open task to in_progress
func (h *TaskHandler) Start(c *gin.Context) { h.transition(c, h.taskService.Start) }

// Complete godoc
// @Summary      Complete a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Task ID" format(uuid)
// @Param        request body taskapp.TransitionRequest true "Version last read"
// @Success      200 {object} dto.Response{data=taskapp.TaskResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) { h.transition(c, h.taskService.Complete) }

// Cancel cancels an open task
func (h *TaskHandler) Cancel(c *gin.Context) { h.transition(c, h.taskService.Cancel) }

// Reopen moves a done or cancelled task back to open
func (h *TaskHandler) Reopen(c *gin.Context) { h.transition(c, h.taskService.Reopen) }

func (h *TaskHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *TaskHandler) Restore(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.taskService.Restore(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}
