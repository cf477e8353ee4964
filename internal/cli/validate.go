package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"concretizer/internal/app"
)

type validateOptions struct {
	RecipeDir string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a recipe directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.RecipeDir, "recipes", "", "Recipe directory")
	_ = viper.BindPFlag("recipes", cmd.Flags().Lookup("recipes"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		RecipeDir: resolveString(cmd, opts.RecipeDir, "recipes", "recipes"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("validated: %d packages\n", result.Packages)
	return nil
}
