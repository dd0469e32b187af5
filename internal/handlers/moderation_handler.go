package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/dto"
	"github.com/trustdesk/backend/internal/middleware"
	"github.com/trustdesk/backend/internal/models"
	"github.com/trustdesk/backend/internal/services"
)

// ModerationHandler exposes the review surface: filtered listing, the
// per-report view and the single action entry point.
type ModerationHandler struct {
	workflow *services.WorkflowService
	store    services.ReportStore
}

func NewModerationHandler(workflow *services.WorkflowService, store services.ReportStore) *ModerationHandler {
	return &ModerationHandler{workflow: workflow, store: store}
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	filter := services.ReportFilter{
		Status: models.ReportStatus(c.Query("status", "")),
		Type:   models.ReportType(c.Query("type", "")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("assigned_to", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid assigned_to ID",
			})
		}
		filter.AssignedToID = &id
	}

	reports, total, err := h.store.List(c.Context(), filter)
	if err != nil {
		return h.fail(c, err, "Failed to fetch reports")
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (h *ModerationHandler) GetReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	view, err := h.store.View(c.Context(), reportID)
	if err != nil {
		return h.fail(c, err, "Failed to fetch report")
	}
	return c.JSON(view)
}

func (h *ModerationHandler) ApplyAction(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	var req dto.ApplyActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	params := services.ActionParams{
		Note:                 req.Note,
		AssignedToID:         req.AssignedToID,
		TargetUserID:         req.TargetUserID,
		SanctionType:         models.SanctionType(req.SanctionType),
		SanctionDurationDays: req.SanctionDurationDays,
	}

	report, err := h.workflow.ApplyAction(c.Context(), reportID, models.ModerationAction(req.Action), params, actor)
	if err != nil {
		slog.Error("moderation action rejected",
			"report_id", reportID.String(),
			"action", req.Action,
			"user_id", actor.ID.String(),
			"error", err.Error(),
		)
		return h.fail(c, err, "Failed to apply action")
	}

	return c.JSON(report)
}

// fail maps the workflow error taxonomy onto HTTP statuses. Retryable kinds
// (version conflict, dependency failure) are marked so callers know a replay
// is safe.
func (h *ModerationHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	var code int
	switch {
	case errors.Is(err, services.ErrReportNotFound), errors.Is(err, services.ErrUserNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		code = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidAction), errors.Is(err, services.ErrVersionConflict):
		code = fiber.StatusConflict
	case errors.Is(err, services.ErrMissingParameter), errors.Is(err, services.ErrInvalidParameter):
		code = fiber.StatusBadRequest
	case errors.Is(err, services.ErrDependencyFailure):
		code = fiber.StatusBadGateway
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: fallback,
		})
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:     true,
		Message:   err.Error(),
		Retryable: services.IsRetryable(err),
	})
}
