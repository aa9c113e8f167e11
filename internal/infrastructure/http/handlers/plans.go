package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/domain/health"
	"github.com/wellpack/engine/internal/domain/plan"
	"github.com/wellpack/engine/internal/infrastructure/security"
	"github.com/wellpack/engine/internal/ports/inbound"
	apperrors "github.com/wellpack/engine/pkg/errors"
)

const maxListLimit = 100

// PlanHandlers handles the plan endpoints
type PlanHandlers struct {
	service   inbound.PlanService
	validator *security.ValidationService
	logger    *zap.Logger
}

// NewPlanHandlers creates a new plan handlers instance
func NewPlanHandlers(service inbound.PlanService, validator *security.ValidationService, logger *zap.Logger) *PlanHandlers {
	return &PlanHandlers{
		service:   service,
		validator: validator,
		logger:    logger.Named("plan-handlers"),
	}
}

// CreatePlanRequest is the body of POST /api/v1/plans
type CreatePlanRequest struct {
	UserID  string         `json:"user_id" validate:"omitempty,uuid"`
	Profile ProfileRequest `json:"profile"`
}

// ProfileRequest is the questionnaire as submitted
type ProfileRequest struct {
	Demographics         DemographicsRequest `json:"demographics"`
	Flags                []FlagRequest       `json:"flags" validate:"max=64,dive"`
	PrimaryHealthConcern string              `json:"primary_health_concern" validate:"max=4000,no_control"`
	KnownBiomarkers      string              `json:"known_biomarkers" validate:"max=4000,no_control"`
	KnownGeneticVariants string              `json:"known_genetic_variants" validate:"max=4000,no_control"`
	Conditions           []string            `json:"conditions" validate:"max=50,dive,max=200,no_control"`
	Medications          []string            `json:"medications" validate:"max=50,dive,max=200,no_control"`
	Allergies            []string            `json:"allergies" validate:"max=50,dive,max=200,no_control"`
}

// DemographicsRequest holds the basic attributes
type DemographicsRequest struct {
	Age    int    `json:"age" validate:"gte=0,lte=120"`
	Sex    string `json:"sex" validate:"max=32,no_control"`
	Weight string `json:"weight" validate:"max=32,no_control"`
	Height string `json:"height" validate:"max=32,no_control"`
}

// FlagRequest is one questionnaire answer. Keys outside the canonical set are rejected.
type FlagRequest struct {
	Key    string `json:"key" validate:"required,flag_key"`
	Value  bool   `json:"value"`
	Detail string `json:"detail" validate:"max=1000,no_control"`
}

// PlanResponse is a plan with its computed total
type PlanResponse struct {
	*plan.Plan
	TotalPrice float64 `json:"total_price"`
}

func newPlanResponse(p *plan.Plan) PlanResponse {
	return PlanResponse{Plan: p, TotalPrice: p.TotalPrice()}
}

// CreatePlan handles POST /api/v1/plans
func (h *PlanHandlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cmd := inbound.CreatePlanCommand{Profile: h.toProfile(req.Profile)}
	if req.UserID != "" {
		cmd.UserID = uuid.MustParse(req.UserID)
	}

	p, err := h.service.CreatePlan(r.Context(), cmd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/plans/"+p.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, APIResponse{
		Success: true,
		Data:    newPlanResponse(p),
		Message: "Plan created",
	})
}

// GetPlan handles GET /api/v1/plans/{id}
func (h *PlanHandlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("Invalid plan ID"))
		return
	}

	p, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: true, Data: newPlanResponse(p)})
}

// ListUserPlans handles GET /api/v1/users/{id}/plans
func (h *PlanHandlers) ListUserPlans(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("Invalid user ID"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			writeError(w, r, h.logger, apperrors.NewBadRequestError("limit must be between 1 and 100"))
			return
		}
	}

	plans, err := h.service.ListPlans(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = newPlanResponse(p)
	}
	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: true, Data: out})
}

// toProfile sanitizes free text and builds the domain profile
func (h *PlanHandlers) toProfile(req ProfileRequest) health.Profile {
	free := security.FreeTextConfig()
	entry := security.ListEntryConfig()

	flags := make([]health.SymptomFlag, len(req.Flags))
	for i, f := range req.Flags {
		flags[i] = health.SymptomFlag{
			Key:    health.FlagKey(f.Key),
			Value:  f.Value,
			Detail: h.validator.SanitizeInput(f.Detail, entry),
		}
	}

	return health.Profile{
		Demographics: health.Demographics{
			Age:    req.Demographics.Age,
			Sex:    h.validator.SanitizeInput(req.Demographics.Sex, entry),
			Weight: h.validator.SanitizeInput(req.Demographics.Weight, entry),
			Height: h.validator.SanitizeInput(req.Demographics.Height, entry),
		},
		Flags:                flags,
		PrimaryHealthConcern: h.validator.SanitizeInput(req.PrimaryHealthConcern, free),
		KnownBiomarkers:      h.validator.SanitizeInput(req.KnownBiomarkers, free),
		KnownGeneticVariants: h.validator.SanitizeInput(req.KnownGeneticVariants, free),
		Conditions:           h.validator.SanitizeList(req.Conditions, entry),
		Medications:          h.validator.SanitizeList(req.Medications, entry),
		Allergies:            h.validator.SanitizeList(req.Allergies, entry),
	}
}
