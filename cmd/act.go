package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/actions"
	"github.com/webpilot-ai/webpilot/internal/browser"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/events"
	"github.com/webpilot-ai/webpilot/internal/llmclient"
	"github.com/webpilot-ai/webpilot/internal/observability"
)

const shutdownTimeout = 15 * time.Second

// newActCmd executes a single browser action against a live browser. It is
// the manual counterpart of one planner step: same registry, same dispatch
// path, same event trail.
func newActCmd() *cobra.Command {
	var (
		startURL    string
		actionName  string
		rawArgs     string
		modelOutput string
	)

	actCmd := &cobra.Command{
		Use:   "act",
		Short: "Dispatches a single browser action and prints its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actionName == "" && modelOutput == "" {
				return fmt.Errorf("either --action or --model-output is required")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			components, err := initializeActComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			runID := uuid.New().String()
			logger.Info("Dispatching action",
				zap.String("run_id", runID),
				zap.String("action", actionName),
			)

			if startURL != "" {
				if err := components.Browser.NavigateTo(ctx, startURL, true); err != nil {
					return fmt.Errorf("failed to open start url: %w", err)
				}
			}

			actx := &actions.Context{
				Browser: components.Browser,
				Options: actions.Options{UseVision: cfg.Agent.UseVision},
				Emitter: components.Emitter,
			}
			builder := actions.NewBuilder(logger, actx, components.Extractor)
			registry := actions.NewRegistry(logger, builder.BuildDefaultActions())

			var result *actions.ActionResult
			if modelOutput != "" {
				result, err = registry.DispatchModelOutput(ctx, modelOutput)
			} else {
				parsed := map[string]any{}
				if rawArgs != "" {
					if err := json.Unmarshal([]byte(rawArgs), &parsed); err != nil {
						return fmt.Errorf("--args is not a JSON object: %w", err)
					}
				}
				result, err = registry.Dispatch(ctx, actionName, parsed)
			}
			if err != nil {
				return err
			}

			printResult(cmd, result)
			printTrail(cmd, components.Trail())

			if components.AuditStore != nil {
				if err := components.persistTrail(ctx, runID); err != nil {
					logger.Warn("Failed to persist audit trail", zap.Error(err))
				} else if err := components.AuditStore.VerifyRun(ctx, runID); err != nil {
					return fmt.Errorf("audit trail verification failed: %w", err)
				}
			}
			return nil
		},
	}

	actCmd.Flags().StringVar(&startURL, "url", "", "URL to open before dispatching the action")
	actCmd.Flags().StringVarP(&actionName, "action", "a", "", "Action name to dispatch (see 'webpilot actions')")
	actCmd.Flags().StringVar(&rawArgs, "args", "", "Action arguments as a JSON object")
	actCmd.Flags().StringVar(&modelOutput, "model-output", "", "Raw model response to dispatch via the combined schema")
	return actCmd
}

func printResult(cmd *cobra.Command, result *actions.ActionResult) {
	out := cmd.OutOrStdout()
	if result.Failed() {
		fmt.Fprintf(out, "FAILED: %s\n", result.Error)
		return
	}
	if result.IsDone {
		fmt.Fprintf(out, "DONE: %s\n", result.ExtractedContent)
		return
	}
	fmt.Fprintf(out, "OK: %s\n", result.ExtractedContent)
}

func printTrail(cmd *cobra.Command, evs []events.ExecutionEvent) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nEvent trail:")
	for _, ev := range evs {
		fmt.Fprintf(out, "  %s  %-9s %s\n", ev.Timestamp.Format(time.RFC3339), ev.Phase, ev.Message)
	}
}

// actComponents holds the initialized services of one act invocation.
// Extractor stays an interface so an absent model is a nil interface, not a
// typed nil pointer the builder's nil check would miss.
type actComponents struct {
	Browser    *browser.Controller
	Extractor  schemas.LLMClient
	Bus        *events.Bus
	Emitter    events.Emitter
	DBPool     *pgxpool.Pool
	AuditStore *events.AuditStore
	logger     *zap.Logger
}

// Trail returns the recorded event stream of this run.
func (c *actComponents) Trail() []events.ExecutionEvent {
	return c.Bus.Log().Events()
}

// persistTrail writes the in-memory trail to the audit store under runID.
func (c *actComponents) persistTrail(ctx context.Context, runID string) error {
	for _, ev := range c.Trail() {
		if err := c.AuditStore.Append(ctx, runID, ev); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown gracefully closes all components.
func (c *actComponents) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if c.Bus != nil {
		c.Bus.Shutdown()
	}
	if c.Browser != nil {
		if err := c.Browser.Close(shutdownCtx); err != nil {
			c.logger.Warn("Error during browser shutdown", zap.Error(err))
		}
	}
	if c.Extractor != nil {
		if err := c.Extractor.Close(); err != nil {
			c.logger.Warn("Error closing LLM client", zap.Error(err))
		}
	}
	if c.DBPool != nil {
		c.DBPool.Close()
	}
}

// initializeActComponents handles dependency injection for the act command.
func initializeActComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*actComponents, error) {
	components := &actComponents{logger: logger}

	browserController, err := browser.NewController(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	components.Browser = browserController

	// The extraction model is optional; without it extract_content degrades to
	// a recoverable failure telling the model to read the page state directly.
	if cfg.Agent.Extractor.APIKey != "" {
		extractor, err := llmclient.NewGoogleClient(ctx, cfg.Agent.Extractor, logger)
		if err != nil {
			components.Shutdown()
			return nil, fmt.Errorf("failed to create extraction model client: %w", err)
		}
		components.Extractor = extractor
	} else {
		logger.Debug("No extraction model configured; extract_content will degrade gracefully")
	}

	components.Bus = events.NewBus(logger, 64)
	components.Emitter = components.Bus

	if cfg.Audit.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Audit.Postgres.DSN())
		if err != nil {
			components.Shutdown()
			return nil, fmt.Errorf("failed to connect to audit database: %w", err)
		}
		components.DBPool = pool

		store := events.NewAuditStore(pool, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			components.Shutdown()
			return nil, fmt.Errorf("failed to prepare audit schema: %w", err)
		}
		components.AuditStore = store
	}

	return components, nil
}

func init() {
	rootCmd.AddCommand(newActCmd())
}
