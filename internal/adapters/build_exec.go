package adapters

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"concretizer/internal/ports"
	"concretizer/internal/shared"
	"concretizer/internal/types"
)

// BuildExecAdapter runs a user-supplied build command once per
// concretized node. The node's identity is passed through the
// environment so any build script can pick it up.
type BuildExecAdapter struct {
	Command string
	WorkDir string
}

func NewBuildExecAdapter(command string, workDir string) BuildExecAdapter {
	return BuildExecAdapter{Command: command, WorkDir: workDir}
}

func (a BuildExecAdapter) Build(ctx context.Context, node *types.SpecNode) error {
	if strings.TrimSpace(a.Command) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build command is empty")
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", a.Command)
	cmd.Dir = a.WorkDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("CONCRETIZER_PACKAGE=%s", node.Package),
		fmt.Sprintf("CONCRETIZER_VERSION=%s", node.Version),
		fmt.Sprintf("CONCRETIZER_SPEC=%s", node.Render()),
	)
	log.Ctx(ctx).Debug().
		Str("package", node.Package).
		Str("version", node.Version).
		Msg("running build command")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("build failed for %s", node.Package)).
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

var _ ports.BuilderPort = BuildExecAdapter{}
