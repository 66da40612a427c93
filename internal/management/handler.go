package management

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"courierpulse/internal/constants"
	"courierpulse/internal/logger"
	"courierpulse/pkg/errors"
)

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		rules := v1.Group("/rules")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.DELETE("/:id", h.DeleteRule)
			rules.POST("/:id/toggle", h.ToggleRule)
			rules.GET("/:id/executions", h.ListExecutions)
		}

		templates := v1.Group("/templates")
		{
			templates.GET("", h.ListTemplates)
			templates.GET("/:id", h.GetTemplate)
			templates.POST("/:id/instantiate", h.InstantiateTemplate)
		}
	}
}

// ListRules godoc
// @Summary      List all notification rules
// @Description  Get a list of all notification rules, active and inactive
// @Tags         rules
// @Accept       json
// @Produce      json
// @Success      200  {array}    NotificationRule
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.Service.ListRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRule godoc
// @Summary      Create a new notification rule
// @Description  Create a new notification rule with conditions and actions
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        rule  body       CreateRuleRequest  true  "Notification rule data"
// @Success      201   {object}   NotificationRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      409   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.CreateRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      Get a notification rule by ID
// @Description  Get a specific notification rule by its ID
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}   NotificationRule
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	id := c.Param("id")
	rule, err := h.Service.GetRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update a notification rule
// @Description  Update an existing notification rule by ID
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Rule ID"
// @Param        rule  body       UpdateRuleRequest  true  "Updated rule data"
// @Success      200   {object}   NotificationRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.UpdateRule(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      Delete a notification rule
// @Description  Delete a notification rule by ID. Rules with execution history cannot be deleted, only deactivated.
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      409  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	err := h.Service.DeleteRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleRule godoc
// @Summary      Activate or deactivate a rule
// @Description  Set the active flag of a notification rule without touching its definition
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Rule ID"
// @Param        body  body       ToggleRuleRequest  true  "Desired active state"
// @Success      200   {object}   NotificationRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/{id}/toggle [post]
func (h *Handler) ToggleRule(c *gin.Context) {
	id := c.Param("id")
	var req ToggleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.ToggleRule(c.Request.Context(), id, req.IsActive)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ListExecutions godoc
// @Summary      Get execution history for a rule
// @Description  Get the most recent executions of a notification rule
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id     path      string  true   "Rule ID"
// @Param        limit  query     int     false  "Maximum number of executions to return (1-1000)" default(100)
// @Success      200    {array}   RuleExecution
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /rules/{id}/executions [get]
func (h *Handler) ListExecutions(c *gin.Context) {
	id := c.Param("id")
	limit := parseLimit(c.Query("limit"))

	executions, err := h.Service.ListExecutions(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, executions)
}

// ListTemplates godoc
// @Summary      List rule templates
// @Description  Get the catalog of predefined rule templates
// @Tags         templates
// @Accept       json
// @Produce      json
// @Success      200  {array}    Template
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /templates [get]
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.Service.ListTemplates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetTemplate godoc
// @Summary      Get a rule template by ID
// @Description  Get a specific rule template by its ID
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}   Template
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /templates/{id} [get]
func (h *Handler) GetTemplate(c *gin.Context) {
	id := c.Param("id")
	template, err := h.Service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// InstantiateTemplate godoc
// @Summary      Create a rule from a template
// @Description  Copy a template into a new notification rule scoped to the given couriers and statuses
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "Template ID"
// @Param        body  body       InstantiateTemplateRequest  true  "Instantiation parameters"
// @Success      201   {object}   NotificationRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      409   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /templates/{id}/instantiate [post]
func (h *Handler) InstantiateTemplate(c *gin.Context) {
	id := c.Param("id")
	var req InstantiateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.InstantiateTemplate(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}
