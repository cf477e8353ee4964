package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	recipeDir := strings.TrimSpace(req.RecipeDir)
	if recipeDir == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("recipe directory is required")
	}
	defs, err := s.loadUniverse(ctx, recipeDir)
	if err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{Packages: len(defs)}, nil
}
