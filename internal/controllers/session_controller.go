package controllers

import (
	"errors"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// SessionController exposes the session lifecycle over HTTP. Workflow
// definitions travel inline in the request body; sessions only persist the
// workflow id they ran.
type SessionController struct {
	engine *engine.Engine
}

type SessionControllerDependencies struct {
	Engine *engine.Engine
}

func NewSessionController(deps SessionControllerDependencies) *SessionController {
	return &SessionController{
		engine: deps.Engine,
	}
}

type CreateSessionRequest struct {
	WorkflowID string `json:"workflow_id"`
	Name       string `json:"name"`
	CreatedBy  string `json:"created_by"`
}

func (c *SessionController) CreateSession(ctx fiber.Ctx) error {
	var req CreateSessionRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := c.engine.Sessions().CreateSession(ctx.RequestCtx(), engine.CreateSessionParams{
		WorkflowID: req.WorkflowID,
		Name:       req.Name,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		var configErr *domain.ConfigurationError
		if errors.As(err, &configErr) {
			return fiber.NewError(fiber.StatusBadRequest, configErr.Error())
		}

		log.Error().Err(err).Msg("Failed to create session")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create session")
	}

	return ctx.Status(fiber.StatusCreated).JSON(session)
}

type ExecuteSessionRequest struct {
	Workflow domain.WorkflowDefinition `json:"workflow"`
	Policy   domain.FailurePolicy      `json:"failure_policy"`
	Seed     map[string]any            `json:"seed,omitempty"`
}

func (c *SessionController) ExecuteSession(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")

	var req ExecuteSessionRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := req.Workflow.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := c.engine.ExecuteSession(ctx.RequestCtx(), req.Workflow, sessionID, engine.RunOptions{
		Policy: req.Policy,
		Seed:   req.Seed,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Session not found")
		}

		var cycleErr *domain.GraphCycleError
		if errors.As(err, &cycleErr) {
			return fiber.NewError(fiber.StatusBadRequest, cycleErr.Error())
		}

		// The run result still describes what happened before the failure.
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	return ctx.JSON(result)
}

func (c *SessionController) CancelSession(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")

	err := c.engine.Sessions().Cancel(ctx.RequestCtx(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Session not found")
		}

		if errors.Is(err, domain.ErrSessionTerminal) {
			return fiber.NewError(fiber.StatusConflict, "Session is already in a terminal state")
		}

		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to cancel session")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to cancel session")
	}

	return ctx.JSON(fiber.Map{"session_id": sessionID, "cancel_requested": true})
}

func (c *SessionController) GetSession(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")

	session, err := c.engine.Sessions().GetSession(ctx.RequestCtx(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Session not found")
		}

		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to get session")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to get session")
	}

	return ctx.JSON(session)
}

func (c *SessionController) ListRecords(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")

	records, err := c.engine.Records().ListRecords(ctx.RequestCtx(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to list execution records")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list execution records")
	}

	return ctx.JSON(fiber.Map{"session_id": sessionID, "records": records})
}

type ExecuteNodeRequest struct {
	Workflow domain.WorkflowDefinition `json:"workflow"`
}

// ExecuteNode runs a single node against the session's persisted data,
// rebuilding its inputs the same way a full run would.
func (c *SessionController) ExecuteNode(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")
	nodeID := ctx.Params("nodeId")

	var req ExecuteNodeRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := req.Workflow.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := c.engine.ExecuteNode(ctx.RequestCtx(), req.Workflow, sessionID, nodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Node not found in workflow")
		}

		var cycleErr *domain.GraphCycleError
		if errors.As(err, &cycleErr) {
			return fiber.NewError(fiber.StatusBadRequest, cycleErr.Error())
		}

		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("node_id", nodeID).
			Msg("Single node execution failed")

		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	return ctx.JSON(result)
}
