package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"concretizer/internal/app"
)

type resolveOptions struct {
	RecipeDir string
	Roots     []string
	Overrides []string
	Compiler  string
	OutputDir string
	SATSolver bool
	MaxSteps  int
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Concretize one or more root packages and produce lock outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.RecipeDir, "recipes", "", "Recipe directory")
	cmd.Flags().StringSliceVar(&opts.Roots, "root", nil, "Root package(s) to concretize")
	cmd.Flags().StringSliceVar(&opts.Overrides, "with", nil, "Root constraints (+cuda, cxxstd=17, @1.9:)")
	cmd.Flags().StringVar(&opts.Compiler, "compiler", "", "Toolchain facts (gcc@12.2)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().BoolVar(&opts.SATSolver, "sat", false, "Use the SAT solver backend")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "Search step budget (0 = unlimited)")

	_ = viper.BindPFlag("recipes", cmd.Flags().Lookup("recipes"))
	_ = viper.BindPFlag("roots", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("with", cmd.Flags().Lookup("with"))
	_ = viper.BindPFlag("compiler", cmd.Flags().Lookup("compiler"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("sat", cmd.Flags().Lookup("sat"))
	_ = viper.BindPFlag("max_steps", cmd.Flags().Lookup("max-steps"))

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	roots := resolveStrings(cmd, opts.Roots, "roots", "root")
	recipeDir := resolveString(cmd, opts.RecipeDir, "recipes", "recipes")
	compiler := resolveString(cmd, opts.Compiler, "compiler", "compiler")
	outputDir := resolveString(cmd, opts.OutputDir, "output", "output")
	sat := resolveBool(cmd, opts.SATSolver, "sat", "sat")
	maxSteps := resolveInt(cmd, opts.MaxSteps, "max_steps", "max-steps")

	if len(roots) > 1 {
		result, err := service.ResolveAll(ctx, app.ResolveAllRequest{
			RecipeDir: recipeDir,
			Roots:     roots,
			Compiler:  compiler,
			OutputDir: outputDir,
			SATSolver: sat,
			MaxSteps:  maxSteps,
		})
		if err != nil {
			return err
		}
		for _, single := range result.Results {
			fmt.Printf("resolved: %s graph=%s packages=%d\n", single.Root, single.GraphID, single.Packages)
		}
		return nil
	}

	root := ""
	if len(roots) == 1 {
		root = roots[0]
	}
	result, err := service.Resolve(ctx, app.ResolveRequest{
		RecipeDir: recipeDir,
		Root:      root,
		Overrides: resolveStrings(cmd, opts.Overrides, "with", "with"),
		Compiler:  compiler,
		OutputDir: outputDir,
		SATSolver: sat,
		MaxSteps:  maxSteps,
	})
	if err != nil {
		return err
	}
	fmt.Printf("resolved: %s graph=%s packages=%d\n", result.Root, result.GraphID, result.Packages)
	return nil
}
