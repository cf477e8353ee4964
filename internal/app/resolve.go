package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"golang.org/x/sync/errgroup"

	"concretizer/internal/core"
	"concretizer/internal/types"
)

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	recipeDir := strings.TrimSpace(req.RecipeDir)
	if recipeDir == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("recipe directory is required")
	}
	root := strings.TrimSpace(req.Root)
	if root == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("root package is required")
	}

	defs, err := s.loadUniverse(ctx, recipeDir)
	if err != nil {
		return ResolveResult{}, err
	}
	graph, err := s.concretize(ctx, defs, req)
	if err != nil {
		return ResolveResult{}, err
	}

	result := ResolveResult{
		Root:      graph.Root(),
		GraphID:   graph.ID(),
		Packages:  len(graph.Nodes()),
		OutputDir: strings.TrimSpace(req.OutputDir),
	}
	if result.OutputDir != "" {
		if err := s.writeOutputs(graph, result.OutputDir); err != nil {
			return ResolveResult{}, err
		}
	}
	return result, nil
}

// ResolveAll concretizes several roots concurrently. Each resolution is
// independent and single threaded internally; nothing is shared between
// them but the compiled definitions, which are read only.
func (s Service) ResolveAll(ctx context.Context, req ResolveAllRequest) (ResolveAllResult, error) {
	if len(req.Roots) == 0 {
		return ResolveAllResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one root package is required")
	}
	results := make([]ResolveResult, len(req.Roots))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, root := range req.Roots {
		group.Go(func() error {
			single := ResolveRequest{
				RecipeDir: req.RecipeDir,
				Root:      root,
				Compiler:  req.Compiler,
				SATSolver: req.SATSolver,
				MaxSteps:  req.MaxSteps,
			}
			if strings.TrimSpace(req.OutputDir) != "" {
				single.OutputDir = filepath.Join(req.OutputDir, root)
			}
			result, err := s.Resolve(groupCtx, single)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return ResolveAllResult{}, err
	}
	return ResolveAllResult{Results: results}, nil
}

func (s Service) concretize(ctx context.Context, defs map[string]types.PackageDefinition, req ResolveRequest) (*core.ConcretizedGraph, error) {
	overrides, err := core.ParseOverrides(req.Overrides)
	if err != nil {
		return nil, err
	}
	facts, err := core.ParseCompilerFacts(req.Compiler)
	if err != nil {
		return nil, err
	}
	graph, err := core.NewGraphBuilder().Build(ctx, defs, req.Root, overrides, facts)
	if err != nil {
		return nil, err
	}
	if req.SATSolver {
		return core.NewSATSolver().Solve(ctx, graph)
	}
	solver := core.NewSolver()
	solver.MaxSteps = req.MaxSteps
	return solver.Solve(ctx, graph)
}

func (s Service) writeOutputs(graph *core.ConcretizedGraph, outputDir string) error {
	var locks []types.LockEntry
	for _, node := range graph.Nodes() {
		locks = append(locks, types.LockEntry{
			Package: node.Package,
			Version: node.Version,
			Spec:    node.Render(),
		})
	}
	output := s.NewOutput(outputDir)
	if err := output.WriteLock(locks); err != nil {
		return err
	}
	if err := output.WriteGraph(graph.CanonicalString(), graph.ID()); err != nil {
		return err
	}
	report := types.ResolutionReport{
		Root:       graph.Root(),
		GraphID:    graph.ID(),
		ResolvedAt: s.Clock().UTC().Format(time.RFC3339),
		Locks:      locks,
		Edges:      graph.Edges(),
	}
	return output.WriteResolutionReport(report)
}
