package vcs

import (
	"context"

	"github.com/thomas-vilte/semrel/internal/models"
)

// PublishRequest is everything a hosting provider needs to publish one
// release.
type PublishRequest struct {
	Tag        string
	Name       string
	Body       string
	Prerelease bool
	Draft      bool
	Assets     []models.Asset
	// Checksums is uploaded as an extra asset when non-empty.
	Checksums string
}

// Publisher creates releases on a hosting provider. Publishing a tag that
// already has a release must not create a second one; missing assets are
// uploaded and AlreadyExisted is set.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (*models.PublishedRelease, error)
	// VerifyAccess checks that the configured credentials are usable.
	VerifyAccess(ctx context.Context) error
}
