package environment

import (
	"fmt"

	"github.com/google/shlex"

	"github.com/vertti/composecert/pkg/procrun"
)

// ComposeCommand resolves the compose tool's command prefix. A configured
// command line is shell-split; otherwise the standalone docker-compose binary
// is preferred when on PATH, falling back to the docker CLI plugin.
func ComposeCommand(runner procrun.Runner, configured string) ([]string, error) {
	if configured != "" {
		parts, err := shlex.Split(configured)
		if err != nil {
			return nil, fmt.Errorf("parse compose command %q: %w", configured, err)
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("compose command %q is empty", configured)
		}
		return parts, nil
	}

	if _, err := runner.LookPath("docker-compose"); err == nil {
		return []string{"docker-compose"}, nil
	}
	return []string{"docker", "compose"}, nil
}
