package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Build concretizes the root and runs the build command once per node,
// children first, so every package is built after its dependencies.
func (s Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	if strings.TrimSpace(req.Command) == "" {
		return BuildResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build command is required")
	}
	defs, err := s.loadUniverse(ctx, req.RecipeDir)
	if err != nil {
		return BuildResult{}, err
	}
	graph, err := s.concretize(ctx, defs, ResolveRequest{
		RecipeDir: req.RecipeDir,
		Root:      req.Root,
		Overrides: req.Overrides,
		Compiler:  req.Compiler,
		SATSolver: req.SATSolver,
		MaxSteps:  req.MaxSteps,
	})
	if err != nil {
		return BuildResult{}, err
	}

	builder := s.NewBuilder(req.Command, req.WorkDir)
	result := BuildResult{GraphID: graph.ID()}
	for _, node := range graph.BuildOrder() {
		if err := builder.Build(ctx, node); err != nil {
			return BuildResult{}, err
		}
		result.Built = append(result.Built, node.Package)
		log.Ctx(ctx).Info().
			Str("package", node.Package).
			Str("version", node.Version).
			Msg("package built")
	}
	return result, nil
}
