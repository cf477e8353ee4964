package ports

import "concretizer/internal/types"

type RecipeSourcePort interface {
	LoadRecipe(path string) (types.RecipeSpec, error)
	LoadRecipeDir(dir string) ([]types.RecipeSpec, error)
}
