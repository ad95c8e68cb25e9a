// Package gitinfo reads the branch and commit of a working tree.
package gitinfo

import (
	"context"
	"os/exec"
	"strings"
)

// Info identifies the code a benchmark ran on.
type Info struct {
	Branch string
	Commit string
}

// Current returns the branch and short commit of the repository containing
// dir. Fields are empty when git is unavailable or dir is not a repository.
func Current(ctx context.Context, dir string) Info {
	return Info{
		Branch: revParse(ctx, dir, "--abbrev-ref", "HEAD"),
		Commit: revParse(ctx, dir, "--short", "HEAD"),
	}
}

func revParse(ctx context.Context, dir string, args ...string) string {
	cmd := exec.CommandContext(ctx, "git", append([]string{"rev-parse"}, args...)...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
