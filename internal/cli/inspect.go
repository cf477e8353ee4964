package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"concretizer/internal/app"
)

type inspectOptions struct {
	RecipeDir string
	Package   string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a compiled package definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.RecipeDir, "recipes", "", "Recipe directory")
	cmd.Flags().StringVar(&opts.Package, "package", "", "Package name")
	_ = viper.BindPFlag("recipes", cmd.Flags().Lookup("recipes"))
	_ = viper.BindPFlag("package", cmd.Flags().Lookup("package"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(ctx, app.InspectRequest{
		RecipeDir: resolveString(cmd, opts.RecipeDir, "recipes", "recipes"),
		Package:   resolveString(cmd, opts.Package, "package", "package"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("package: %s\n", result.Name)
	fmt.Printf("versions: %s\n", strings.Join(result.Versions, ", "))
	fmt.Println("variants:")
	for _, variant := range result.Variants {
		line := fmt.Sprintf("- %s (%s) default=%s", variant.Name, variant.Kind, variant.Default)
		if len(variant.Values) > 0 {
			line += " values=" + strings.Join(variant.Values, ",")
		}
		if variant.When != "" {
			line += " when=" + variant.When
		}
		fmt.Println(line)
		if variant.Description != "" {
			fmt.Printf("  %s\n", variant.Description)
		}
	}
	fmt.Println("depends_on:")
	for _, rule := range result.Dependencies {
		line := fmt.Sprintf("- %s -> %s", rule.ID, rule.Target)
		if rule.Require != "" {
			line += " require=" + rule.Require
		}
		if rule.When != "" {
			line += " when=" + rule.When
		}
		fmt.Println(line)
	}
	fmt.Println("conflicts:")
	for _, rule := range result.Conflicts {
		line := fmt.Sprintf("- %s on %s", rule.ID, rule.Require)
		if rule.When != "" {
			line += " when=" + rule.When
		}
		if rule.Message != "" {
			line += ": " + rule.Message
		}
		fmt.Println(line)
	}
	return nil
}
