// Package adapters implements the ports against the outside world:
// recipe files on disk, output artifacts, and build command execution.
package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"concretizer/internal/ports"
	"concretizer/internal/types"
)

const recipeAPIVersion = "v1"

type RecipeFileAdapter struct{}

func NewRecipeFileAdapter() RecipeFileAdapter {
	return RecipeFileAdapter{}
}

func (a RecipeFileAdapter) LoadRecipe(path string) (types.RecipeSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RecipeSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("recipe file not found").
			WithCause(err)
	}
	var spec types.RecipeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return types.RecipeSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse recipe yaml %s", filepath.Base(path))).
			WithCause(err)
	}
	if spec.APIVersion != "" && spec.APIVersion != recipeAPIVersion {
		return types.RecipeSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported recipe api_version %s in %s", spec.APIVersion, filepath.Base(path)))
	}
	return spec, nil
}

// LoadRecipeDir loads every .yaml recipe in a directory, sorted by file
// name so the resulting universe is order independent.
func (a RecipeFileAdapter) LoadRecipeDir(dir string) ([]types.RecipeSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("recipe directory not found").
			WithCause(err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no recipe files in %s", dir))
	}
	specs := make([]types.RecipeSpec, 0, len(names))
	for _, name := range names {
		spec, err := a.LoadRecipe(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

var _ ports.RecipeSourcePort = RecipeFileAdapter{}
