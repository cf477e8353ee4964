package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"concretizer/internal/app"
)

type buildOptions struct {
	RecipeDir string
	Root      string
	Overrides []string
	Compiler  string
	Command   string
	WorkDir   string
	SATSolver bool
	MaxSteps  int
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Concretize a root package and run the build command per node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.RecipeDir, "recipes", "", "Recipe directory")
	cmd.Flags().StringVar(&opts.Root, "root", "", "Root package to build")
	cmd.Flags().StringSliceVar(&opts.Overrides, "with", nil, "Root constraints (+cuda, cxxstd=17, @1.9:)")
	cmd.Flags().StringVar(&opts.Compiler, "compiler", "", "Toolchain facts (gcc@12.2)")
	cmd.Flags().StringVar(&opts.Command, "command", "", "Build command, run once per node")
	cmd.Flags().StringVar(&opts.WorkDir, "workdir", "", "Working directory for the build command")
	cmd.Flags().BoolVar(&opts.SATSolver, "sat", false, "Use the SAT solver backend")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "Search step budget (0 = unlimited)")

	_ = viper.BindPFlag("recipes", cmd.Flags().Lookup("recipes"))
	_ = viper.BindPFlag("root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("with", cmd.Flags().Lookup("with"))
	_ = viper.BindPFlag("compiler", cmd.Flags().Lookup("compiler"))
	_ = viper.BindPFlag("command", cmd.Flags().Lookup("command"))
	_ = viper.BindPFlag("workdir", cmd.Flags().Lookup("workdir"))
	_ = viper.BindPFlag("sat", cmd.Flags().Lookup("sat"))
	_ = viper.BindPFlag("max_steps", cmd.Flags().Lookup("max-steps"))

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, opts buildOptions) error {
	service := newAppService()
	result, err := service.Build(ctx, app.BuildRequest{
		RecipeDir: resolveString(cmd, opts.RecipeDir, "recipes", "recipes"),
		Root:      resolveString(cmd, opts.Root, "root", "root"),
		Overrides: resolveStrings(cmd, opts.Overrides, "with", "with"),
		Compiler:  resolveString(cmd, opts.Compiler, "compiler", "compiler"),
		Command:   resolveString(cmd, opts.Command, "command", "command"),
		WorkDir:   resolveString(cmd, opts.WorkDir, "workdir", "workdir"),
		SATSolver: resolveBool(cmd, opts.SATSolver, "sat", "sat"),
		MaxSteps:  resolveInt(cmd, opts.MaxSteps, "max_steps", "max-steps"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("built %d packages (graph %s)\n", len(result.Built), result.GraphID)
	return nil
}
