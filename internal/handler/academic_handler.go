package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scolara/scolara-api/internal/service"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/response"
)

// AcademicHandler exposes the department, specialty, level and group
// hierarchy.
type AcademicHandler struct {
	service *service.AcademicService
}

// NewAcademicHandler constructs an academic handler.
func NewAcademicHandler(svc *service.AcademicService) *AcademicHandler {
	return &AcademicHandler{service: svc}
}

func nameListRequest(c *gin.Context, parentParam string) service.NameListRequest {
	var req service.NameListRequest
	req.Search = strings.TrimSpace(c.Query("search"))
	req.ParentID = c.Query(parentParam)
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		req.PageSize = limit
	}
	req.SortBy = c.Query("sort")
	req.SortOrder = c.Query("order")
	return req
}

// ListDepartments godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *AcademicHandler) ListDepartments(c *gin.Context) {
	rows, pagination, err := h.service.ListDepartments(c.Request.Context(), nameListRequest(c, ""))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetDepartment godoc
// @Summary Get department by id
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *AcademicHandler) GetDepartment(c *gin.Context) {
	department, err := h.service.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *AcademicHandler) CreateDepartment(c *gin.Context) {
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.service.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// UpdateDepartment godoc
// @Summary Update department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *AcademicHandler) UpdateDepartment(c *gin.Context) {
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.service.UpdateDepartment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// DeleteDepartment godoc
// @Summary Delete department
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *AcademicHandler) DeleteDepartment(c *gin.Context) {
	if err := h.service.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSpecialties godoc
// @Summary List specialties
// @Tags Specialties
// @Produce json
// @Param department_id query string false "Filter by department"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /specialties [get]
func (h *AcademicHandler) ListSpecialties(c *gin.Context) {
	rows, pagination, err := h.service.ListSpecialties(c.Request.Context(), nameListRequest(c, "department_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetSpecialty godoc
// @Summary Get specialty by id
// @Tags Specialties
// @Produce json
// @Param id path string true "Specialty ID"
// @Success 200 {object} response.Envelope
// @Router /specialties/{id} [get]
func (h *AcademicHandler) GetSpecialty(c *gin.Context) {
	specialty, err := h.service.GetSpecialty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specialty, nil)
}

// CreateSpecialty godoc
// @Summary Create specialty
// @Tags Specialties
// @Accept json
// @Produce json
// @Param payload body service.SpecialtyRequest true "Specialty payload"
// @Success 201 {object} response.Envelope
// @Router /specialties [post]
func (h *AcademicHandler) CreateSpecialty(c *gin.Context) {
	var req service.SpecialtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	specialty, err := h.service.CreateSpecialty(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, specialty)
}

// UpdateSpecialty godoc
// @Summary Update specialty
// @Tags Specialties
// @Accept json
// @Produce json
// @Param id path string true "Specialty ID"
// @Param payload body service.SpecialtyRequest true "Specialty payload"
// @Success 200 {object} response.Envelope
// @Router /specialties/{id} [put]
func (h *AcademicHandler) UpdateSpecialty(c *gin.Context) {
	var req service.SpecialtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	specialty, err := h.service.UpdateSpecialty(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specialty, nil)
}

// DeleteSpecialty godoc
// @Summary Delete specialty
// @Tags Specialties
// @Produce json
// @Param id path string true "Specialty ID"
// @Success 204
// @Router /specialties/{id} [delete]
func (h *AcademicHandler) DeleteSpecialty(c *gin.Context) {
	if err := h.service.DeleteSpecialty(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListLevels godoc
// @Summary List levels
// @Tags Levels
// @Produce json
// @Param specialty_id query string false "Filter by specialty"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *AcademicHandler) ListLevels(c *gin.Context) {
	rows, pagination, err := h.service.ListLevels(c.Request.Context(), nameListRequest(c, "specialty_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetLevel godoc
// @Summary Get level by id
// @Tags Levels
// @Produce json
// @Param id path string true "Level ID"
// @Success 200 {object} response.Envelope
// @Router /levels/{id} [get]
func (h *AcademicHandler) GetLevel(c *gin.Context) {
	level, err := h.service.GetLevel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// CreateLevel godoc
// @Summary Create level
// @Tags Levels
// @Accept json
// @Produce json
// @Param payload body service.LevelRequest true "Level payload"
// @Success 201 {object} response.Envelope
// @Router /levels [post]
func (h *AcademicHandler) CreateLevel(c *gin.Context) {
	var req service.LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.service.CreateLevel(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// UpdateLevel godoc
// @Summary Update level
// @Tags Levels
// @Accept json
// @Produce json
// @Param id path string true "Level ID"
// @Param payload body service.LevelRequest true "Level payload"
// @Success 200 {object} response.Envelope
// @Router /levels/{id} [put]
func (h *AcademicHandler) UpdateLevel(c *gin.Context) {
	var req service.LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.service.UpdateLevel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// DeleteLevel godoc
// @Summary Delete level
// @Tags Levels
// @Produce json
// @Param id path string true "Level ID"
// @Success 204
// @Router /levels/{id} [delete]
func (h *AcademicHandler) DeleteLevel(c *gin.Context) {
	if err := h.service.DeleteLevel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListGroups godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Param level_id query string false "Filter by level"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *AcademicHandler) ListGroups(c *gin.Context) {
	rows, pagination, err := h.service.ListGroups(c.Request.Context(), nameListRequest(c, "level_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetGroup godoc
// @Summary Get group by id
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *AcademicHandler) GetGroup(c *gin.Context) {
	group, err := h.service.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// CreateGroup godoc
// @Summary Create group with a generated name
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body service.GroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *AcademicHandler) CreateGroup(c *gin.Context) {
	var req service.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.service.CreateGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// DeleteGroup godoc
// @Summary Delete group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 204
// @Router /groups/{id} [delete]
func (h *AcademicHandler) DeleteGroup(c *gin.Context) {
	if err := h.service.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
