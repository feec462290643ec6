package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"FundSentinel/internal/fund"
	"FundSentinel/internal/model"
	"FundSentinel/internal/recorder"
)

// Evaluator evaluates funds by code or from a caller-supplied input.
type Evaluator interface {
	EvaluateCode(ctx context.Context, code string) (model.Outcome, error)
	EvaluateInput(ctx context.Context, in model.FundInput) model.Outcome
}

// Handler serves the v1 routes.
type Handler struct {
	evaluator Evaluator
	recorder  recorder.Recorder
	now       func() time.Time
}

// NewHandler creates a Handler. rec may be nil.
func NewHandler(ev Evaluator, rec recorder.Recorder) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{evaluator: ev, recorder: rec, now: time.Now}
}

// RegisterRoutes mounts the handler on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	v1 := e.Group("/api/v1")
	v1.GET("/funds/:code", h.getFund)
	v1.POST("/evaluate", h.evaluate)
}

func (h *Handler) health(c echo.Context) error {
	return SuccessResponse(c, map[string]string{"state": "ok"})
}

func (h *Handler) getFund(c echo.Context) error {
	code, err := fund.NormalizeCode(c.Param("code"))
	if err != nil {
		return BadRequestResponse(c, []ValidationError{{Code: "ERR_CODE", Field: "code", Message: err.Error()}})
	}

	out, err := h.evaluator.EvaluateCode(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		log.Warn().Err(err).Str("code", code).Msg("api collect failed")
		return BadGatewayResponse(c, err.Error())
	}
	h.record(c.Request().Context(), out)
	return SuccessResponse(c, out)
}

// EvaluateRequest is the body of POST /api/v1/evaluate.
type EvaluateRequest struct {
	Code               string             `json:"code" validate:"required,len=6,numeric"`
	Name               string             `json:"name"`
	TypeName           string             `json:"type_name"`
	History            []model.PricePoint `json:"history" validate:"required,min=2,dive"`
	Gsz                *float64           `json:"gsz" validate:"omitempty,gt=0"`
	Dwjz               *float64           `json:"dwjz" validate:"omitempty,gt=0"`
	Live               *bool              `json:"live" default:"true"`
	AsOf               time.Time          `json:"as_of"`
	PublishedChangePct *float64           `json:"published_change_pct"`
	IndexHistory       []model.IndexPoint `json:"index_history"`
	ManagerCommitment  string             `json:"manager_commitment" validate:"omitempty,oneof=高 中 低"`
}

func (r EvaluateRequest) input(now time.Time) model.FundInput {
	in := model.FundInput{
		Code:               r.Code,
		Name:               r.Name,
		TypeName:           r.TypeName,
		History:            r.History,
		Gsz:                r.Gsz,
		Dwjz:               r.Dwjz,
		AsOf:               r.AsOf,
		Live:               r.Live != nil && *r.Live,
		PublishedChangePct: r.PublishedChangePct,
		IndexHistory:       r.IndexHistory,
		ManagerCommitment:  r.ManagerCommitment,
	}
	if in.AsOf.IsZero() {
		in.AsOf = now
	}
	return in
}

func (h *Handler) evaluate(c echo.Context) error {
	var req EvaluateRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	out := h.evaluator.EvaluateInput(c.Request().Context(), req.input(h.now()))
	h.record(c.Request().Context(), out)
	return SuccessResponse(c, out)
}

func (h *Handler) record(ctx context.Context, out model.Outcome) {
	if err := h.recorder.RecordEvaluation(ctx, "api", out); err != nil {
		log.Warn().Err(err).Str("code", out.Code).Msg("record evaluation")
	}
}
