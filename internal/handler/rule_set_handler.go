package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// RuleSetHandler handles tip rule set endpoints.
type RuleSetHandler struct {
	ruleSetService service.RuleSetService
}

// NewRuleSetHandler creates a new RuleSetHandler.
func NewRuleSetHandler(ruleSetService service.RuleSetService) *RuleSetHandler {
	return &RuleSetHandler{ruleSetService: ruleSetService}
}

type createRuleSetRequest struct {
	LocationID       uuid.UUID               `json:"location_id"`
	Name             string                  `json:"name"`
	AllocationMethod domain.AllocationMethod `json:"allocation_method" binding:"required"`
	RuleDefinition   json.RawMessage         `json:"rule_definition"`
}

// Create handles POST /api/v1/rule-sets
// @Summary Create a new rule set version
// @Description Supersedes the location's current rule set.
// @Tags rule-sets
// @Accept json
// @Produce json
// @Param request body createRuleSetRequest true "Rule set"
// @Success 201 {object} APIResponse{data=service.RuleSetResult} "Rule set created"
// @Failure 400 {object} APIResponse "Invalid rule definition"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Security BearerAuth
// @Router /rule-sets [post]
func (h *RuleSetHandler) Create(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req createRuleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "allocation_method is required")
		return
	}

	result, err := h.ruleSetService.Create(c.Request.Context(), rc, &service.CreateRuleSetInput{
		LocationID:       req.LocationID,
		Name:             req.Name,
		AllocationMethod: req.AllocationMethod,
		RuleDefinition:   req.RuleDefinition,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result, result.Warnings)
}

// List handles GET /api/v1/rule-sets?location_id=
// @Summary List rule set versions of a location
// @Tags rule-sets
// @Produce json
// @Param location_id query string true "Location ID (UUID)"
// @Success 200 {object} APIResponse{data=[]domain.RuleSet} "Rule sets"
// @Failure 400 {object} APIResponse "Invalid location_id"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Security BearerAuth
// @Router /rule-sets [get]
func (h *RuleSetHandler) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	locationID, ok := locationQuery(c)
	if !ok {
		return
	}

	ruleSets, err := h.ruleSetService.List(c.Request.Context(), rc, locationID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ruleSets)
}

// Current handles GET /api/v1/rule-sets/current?location_id=
// @Summary Get the current rule set of a location
// @Tags rule-sets
// @Produce json
// @Param location_id query string true "Location ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.RuleSet} "Current rule set"
// @Failure 400 {object} APIResponse "Invalid location_id"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "No active rule set"
// @Security BearerAuth
// @Router /rule-sets/current [get]
func (h *RuleSetHandler) Current(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	locationID, ok := locationQuery(c)
	if !ok {
		return
	}

	ruleSet, err := h.ruleSetService.GetCurrent(c.Request.Context(), rc, locationID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ruleSet)
}

func locationQuery(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "location_id query parameter is required")
		return uuid.Nil, false
	}
	return id, true
}
