package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"concretizer/internal/adapters"
	"concretizer/internal/core"
	"concretizer/internal/ports"
	"concretizer/internal/types"
)

type Service struct {
	Recipes      ports.RecipeSourcePort
	OutputReader ports.OutputReaderPort
	// NewOutput and NewBuilder construct the per-request adapters; the
	// output directory and build command only arrive with the request.
	NewOutput  func(dir string) ports.OutputPort
	NewBuilder func(command string, workDir string) ports.BuilderPort
	Clock      func() time.Time
}

func NewService() Service {
	return Service{
		Recipes:      adapters.NewRecipeFileAdapter(),
		OutputReader: adapters.NewOutputReaderAdapter(),
		NewOutput: func(dir string) ports.OutputPort {
			return adapters.NewOutputFileAdapter(dir)
		},
		NewBuilder: func(command string, workDir string) ports.BuilderPort {
			return adapters.NewBuildExecAdapter(command, workDir)
		},
		Clock: time.Now,
	}
}

// loadUniverse loads and compiles every recipe in a directory into the
// definition map the resolver works against.
func (s Service) loadUniverse(ctx context.Context, recipeDir string) (map[string]types.PackageDefinition, error) {
	specs, err := s.Recipes.LoadRecipeDir(recipeDir)
	if err != nil {
		return nil, err
	}
	compiler := core.NewRecipeCompiler()
	validator := core.NewRecipeValidator()
	defs := map[string]types.PackageDefinition{}
	for _, spec := range specs {
		def, err := compiler.Compile(ctx, spec)
		if err != nil {
			return nil, err
		}
		if _, ok := defs[def.Name]; ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("package %s is declared by more than one recipe", def.Name))
		}
		if err := validator.ValidateDefinition(ctx, def); err != nil {
			return nil, err
		}
		defs[def.Name] = def
	}
	if err := validator.ValidateUniverse(ctx, defs); err != nil {
		return nil, err
	}
	return defs, nil
}
