package pull

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ReadHead returns the commit hash HEAD points at in the repository that
// contains dir. An empty dir means the process working directory.
func ReadHead(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening repository at %q: %w", dir, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
