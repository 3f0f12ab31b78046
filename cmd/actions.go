package cmd

import (
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/webpilot-ai/webpilot/internal/actions"
	"github.com/webpilot-ai/webpilot/internal/observability"
)

// newActionsCmd lists the registered action set the way the planning model
// sees it.
func newActionsCmd() *cobra.Command {
	var asSchema bool

	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "Prints the registered browser actions and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			// Handlers are never invoked here, so the builder needs no live
			// browser behind it.
			builder := actions.NewBuilder(logger, &actions.Context{}, nil)
			registry := actions.NewRegistry(logger, builder.BuildDefaultActions())

			if asSchema {
				out, err := json.MarshalIndent(registry.DynamicSchema(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to render schema: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), registry.PromptDescription())
			return nil
		},
	}

	actionsCmd.Flags().BoolVar(&asSchema, "schema", false, "Print the combined JSON schema instead of the prompt description")
	return actionsCmd
}

func init() {
	rootCmd.AddCommand(newActionsCmd())
}
