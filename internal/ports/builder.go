package ports

import (
	"context"

	"concretizer/internal/types"
)

// BuilderPort executes the build step of one concretized node. The
// resolver walks nodes children first, so a node's dependencies are
// always built before the node itself.
type BuilderPort interface {
	Build(ctx context.Context, node *types.SpecNode) error
}
