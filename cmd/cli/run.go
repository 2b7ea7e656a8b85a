package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/flowdeck/flowdeck/pkg/connectors"
	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
	"github.com/flowdeck/flowdeck/pkg/executors"
	"github.com/flowdeck/flowdeck/pkg/storage"

	"github.com/spf13/cobra"
)

func NewRunCommand() *cobra.Command {
	var (
		policy    string
		seedPairs []string
	)

	cmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute a workflow file once",
		Long:  `Execute a workflow definition file in a one-shot session backed by in-memory stores. The run result is printed as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(args[0], policy, seedPairs)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(domain.AbortOnError), "Failure policy: abort_on_error or continue_on_error")
	cmd.Flags().StringArrayVar(&seedPairs, "seed", nil, "Seed bus entries as key=value, repeatable")

	return cmd
}

func runOnce(path, policy string, seedPairs []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read workflow file: %w", err)
	}

	def, err := domain.ParseWorkflowDefinition(raw)
	if err != nil {
		return err
	}

	failurePolicy := domain.FailurePolicy(policy)
	if failurePolicy != domain.AbortOnError && failurePolicy != domain.ContinueOnError {
		return fmt.Errorf("unknown failure policy %q", policy)
	}

	seed := map[string]any{}

	for _, pair := range seedPairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid seed entry %q, expected key=value", pair)
		}

		seed[key] = value
	}

	config := domain.DefaultEngineConfig()

	eng := engine.NewEngine(engine.EngineDeps{
		SessionStore: storage.NewMemorySessionStore(),
		RecordStore:  storage.NewMemoryRecordStore(),
		DataBus:      storage.NewMemoryDataBus(),
		Config:       config,
	})

	deps := domain.ExecutorDeps{
		HTTPCaller:  connectors.NewHTTPClient(config.HTTPTimeout),
		Definitions: storage.NewMemoryDefinitionStore(),
		Nested:      eng,
	}

	if dsn := os.Getenv("FLOWDECK_POSTGRES_DSN"); dsn != "" {
		postgres, err := connectors.NewPostgresQueryService(ctx, dsn, config.MaxQueryRows)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres connector: %w", err)
		}
		defer postgres.Close()

		deps.Postgres = postgres
	}

	if apiKey := os.Getenv("FLOWDECK_COMPLETION_API_KEY"); apiKey != "" {
		completion, err := connectors.NewCompletionService(connectors.CompletionConfig{
			Provider: os.Getenv("FLOWDECK_COMPLETION_PROVIDER"),
			APIKey:   apiKey,
			Model:    os.Getenv("FLOWDECK_COMPLETION_MODEL"),
		})
		if err != nil {
			return err
		}

		deps.Completion = completion
	}

	eng.SetRegistry(executors.NewRegistry(deps, config))

	session, err := eng.Sessions().CreateSession(ctx, engine.CreateSessionParams{
		WorkflowID: def.ID,
		Name:       path,
		CreatedBy:  "cli",
	})
	if err != nil {
		return err
	}

	result, runErr := eng.ExecuteSession(ctx, def, session.ID, engine.RunOptions{
		Policy: failurePolicy,
		Seed:   seed,
	})

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(encoded))

	return runErr
}
