package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowdeck/flowdeck/internal/initialization"
	"github.com/flowdeck/flowdeck/internal/scheduler"
	"github.com/flowdeck/flowdeck/internal/server"
	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and scheduler",
		Long:  `Start the engine as a long-running service: the session lifecycle HTTP API plus the cron scheduler for committed runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	return cmd
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := initialization.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	container, err := initialization.NewContainer(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build dependencies")
	}
	defer container.Close(context.Background())

	sched := scheduler.NewScheduler(container.Engine)

	for _, sc := range config.Schedules {
		raw, err := os.ReadFile(sc.File)
		if err != nil {
			log.Fatal().Err(err).Str("schedule", sc.Name).Msg("Failed to read scheduled workflow file")
		}

		def, err := domain.ParseWorkflowDefinition(raw)
		if err != nil {
			log.Fatal().Err(err).Str("schedule", sc.Name).Msg("Invalid scheduled workflow definition")
		}

		err = sched.Add(scheduler.ScheduledWorkflow{
			Name:     sc.Name,
			Spec:     sc.Spec,
			Workflow: def,
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", sc.Name).Msg("Failed to register schedule")
		}
	}

	sched.Start()
	defer sched.Stop()

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		SessionController: container.SessionController,
	})

	log.Info().Str("address", config.HTTPAddress).Msg("Starting HTTP server")

	if err := app.Listen(config.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Engine service stopped")

	return nil
}
