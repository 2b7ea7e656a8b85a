package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

// ScheduledWorkflow binds a workflow definition to a cron expression.
// Scheduled runs are committed runs, so they always abort on the first
// node failure.
type ScheduledWorkflow struct {
	Name     string
	Spec     string
	Workflow domain.WorkflowDefinition
	Seed     map[string]any
}

type Scheduler struct {
	engine *engine.Engine
	cron   *cron.Cron
}

func NewScheduler(eng *engine.Engine) *Scheduler {
	return &Scheduler{
		engine: eng,
		cron:   cron.New(),
	}
}

// Add registers a scheduled workflow. The cron spec is validated up front so
// a bad schedule fails at startup, not at first fire.
func (s *Scheduler) Add(sw ScheduledWorkflow) error {
	if _, err := cron.ParseStandard(sw.Spec); err != nil {
		return fmt.Errorf("invalid cron spec %q for %s: %w", sw.Spec, sw.Name, err)
	}

	if err := sw.Workflow.Validate(); err != nil {
		return fmt.Errorf("invalid workflow for schedule %s: %w", sw.Name, err)
	}

	if err := s.cron.AddFunc(sw.Spec, func() {
		s.runOnce(sw)
	}); err != nil {
		return fmt.Errorf("failed to register schedule %s: %w", sw.Name, err)
	}

	log.Info().
		Str("schedule", sw.Name).
		Str("spec", sw.Spec).
		Str("workflow_id", sw.Workflow.ID).
		Msg("Scheduled workflow registered")

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runOnce(sw ScheduledWorkflow) {
	ctx := context.Background()

	session, err := s.engine.Sessions().CreateSession(ctx, engine.CreateSessionParams{
		WorkflowID: sw.Workflow.ID,
		Name:       fmt.Sprintf("%s @ %s", sw.Name, time.Now().UTC().Format(time.RFC3339)),
		CreatedBy:  "scheduler",
	})
	if err != nil {
		log.Error().Err(err).Str("schedule", sw.Name).Msg("Failed to create scheduled session")
		return
	}

	result, err := s.engine.ExecuteSession(ctx, sw.Workflow, session.ID, engine.RunOptions{
		Policy: domain.AbortOnError,
		Seed:   sw.Seed,
	})
	if err != nil {
		log.Error().Err(err).
			Str("schedule", sw.Name).
			Str("session_id", session.ID).
			Msg("Scheduled run failed")

		return
	}

	log.Info().
		Str("schedule", sw.Name).
		Str("session_id", result.SessionID).
		Str("status", string(result.Status)).
		Msg("Scheduled run finished")
}
