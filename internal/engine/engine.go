package engine

import (
	"context"

	"github.com/medialoom/loom/pkg/models"
)

// Resolver is the interface implemented by every resolution backend.
type Resolver interface {
	// Resolve turns a validated media URL into a MediaResult.
	Resolve(ctx context.Context, url string) (*models.MediaResult, error)

	// Name returns the name of the resolver implementation
	Name() string
}
