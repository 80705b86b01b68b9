package github

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	domainErrors "github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/logger"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/vcs"
)

var _ vcs.Publisher = (*GitHubClient)(nil)

// ChecksumsAssetName is the name of the uploaded checksum list.
const ChecksumsAssetName = "SHA256SUMS"

type ReleasesService interface {
	CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
	UploadReleaseAsset(ctx context.Context, owner, repo string, id int64, opt *github.UploadOptions, file *os.File) (*github.ReleaseAsset, *github.Response, error)
}

type UsersService interface {
	Get(ctx context.Context, user string) (*github.User, *github.Response, error)
}

type GitHubClient struct {
	releaseService ReleasesService
	usersService   UsersService
	owner          string
	repo           string
	token          string
}

func NewGitHubClient(owner, repo, token string) *GitHubClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	return &GitHubClient{
		releaseService: client.Repositories,
		usersService:   client.Users,
		owner:          owner,
		repo:           repo,
		token:          token,
	}
}

func NewGitHubClientWithServices(
	releaseService ReleasesService,
	usersService UsersService,
	owner string,
	repo string,
) *GitHubClient {
	return &GitHubClient{
		releaseService: releaseService,
		usersService:   usersService,
		owner:          owner,
		repo:           repo,
	}
}

func (ghc *GitHubClient) repoName() string {
	return fmt.Sprintf("%s/%s", ghc.owner, ghc.repo)
}

// mapResponseError turns well-known status codes into domain errors.
func (ghc *GitHubClient) mapResponseError(resp *github.Response, operation string, fallback *domainErrors.AppError, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return domainErrors.ErrGitHubTokenInvalid.WithContext("operation", operation)
		case http.StatusForbidden:
			if resp.Rate.Remaining == 0 && !resp.Rate.Reset.IsZero() {
				return domainErrors.ErrGitHubRateLimit.
					WithContext("operation", operation).
					WithContext("reset", resp.Rate.Reset.String())
			}
			return domainErrors.ErrGitHubInsufficientPerms.
				WithContext("operation", operation).
				WithContext("repo", ghc.repoName())
		case http.StatusTooManyRequests:
			return domainErrors.ErrGitHubRateLimit.
				WithContext("operation", operation).
				WithContext("retry_after", resp.Header.Get("Retry-After"))
		case http.StatusNotFound:
			return domainErrors.ErrRepositoryNotFound.
				WithContext("operation", operation).
				WithContext("repo", ghc.repoName())
		}
	}
	return fallback.WithError(err).WithContext("operation", operation)
}

// VerifyAccess resolves the authenticated user to check the token.
func (ghc *GitHubClient) VerifyAccess(ctx context.Context) error {
	user, resp, err := ghc.usersService.Get(ctx, "")
	if err != nil {
		return ghc.mapResponseError(resp, "verify token", domainErrors.ErrGitHubTokenInvalid, err)
	}
	logger.Debug(ctx, "github token verified", "user", user.GetLogin())
	return nil
}

// getRelease returns nil without error when the tag has no release.
func (ghc *GitHubClient) getRelease(ctx context.Context, tag string) (*github.RepositoryRelease, error) {
	release, resp, err := ghc.releaseService.GetReleaseByTag(ctx, ghc.owner, ghc.repo, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, ghc.mapResponseError(resp, "get release", domainErrors.ErrGetRelease, err)
	}
	return release, nil
}

func (ghc *GitHubClient) Publish(ctx context.Context, req vcs.PublishRequest) (*models.PublishedRelease, error) {
	log := logger.FromContext(ctx).With("tag", req.Tag, "repo", ghc.repoName())

	release, err := ghc.getRelease(ctx, req.Tag)
	if err != nil {
		return nil, err
	}

	published := &models.PublishedRelease{Tag: req.Tag}
	if release != nil {
		log.Info("release already exists, skipping creation")
		published.AlreadyExisted = true
	} else {
		release, err = ghc.createRelease(ctx, req)
		if err != nil {
			return nil, err
		}
		log.Info("release created", "release_id", release.GetID())
	}
	published.URL = release.GetHTMLURL()

	existing := make(map[string]bool, len(release.Assets))
	for _, a := range release.Assets {
		existing[a.GetName()] = true
	}

	for _, asset := range req.Assets {
		if existing[asset.Name] {
			log.Debug("asset already uploaded", "asset", asset.Name)
			published.Assets = append(published.Assets, asset.Name)
			continue
		}
		if err := ghc.uploadFile(ctx, release.GetID(), asset.Name, asset.Path); err != nil {
			return published, err
		}
		log.Info("asset uploaded", "asset", asset.Name, "sha256", asset.SHA256)
		published.Assets = append(published.Assets, asset.Name)
	}

	if req.Checksums != "" && !existing[ChecksumsAssetName] {
		if err := ghc.uploadChecksums(ctx, release.GetID(), req.Checksums); err != nil {
			return published, err
		}
		published.Assets = append(published.Assets, ChecksumsAssetName)
	}

	return published, nil
}

func (ghc *GitHubClient) createRelease(ctx context.Context, req vcs.PublishRequest) (*github.RepositoryRelease, error) {
	makeLatest := "true"
	if req.Prerelease {
		makeLatest = "false"
	}
	name := req.Name
	if name == "" {
		name = req.Tag
	}

	releaseRequest := &github.RepositoryRelease{
		TagName:    github.Ptr(req.Tag),
		Name:       github.Ptr(name),
		Body:       github.Ptr(req.Body),
		Draft:      github.Ptr(req.Draft),
		Prerelease: github.Ptr(req.Prerelease),
		MakeLatest: github.Ptr(makeLatest),
	}

	created, resp, err := ghc.releaseService.CreateRelease(ctx, ghc.owner, ghc.repo, releaseRequest)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, domainErrors.ErrCreateRelease.WithError(err).
				WithContext("tag", req.Tag).
				WithContext("reason", "validation failed")
		}
		return nil, ghc.mapResponseError(resp, "create release", domainErrors.ErrCreateRelease, err)
	}
	return created, nil
}

func (ghc *GitHubClient) uploadFile(ctx context.Context, releaseID int64, name, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return domainErrors.ErrUploadAsset.WithError(err).WithContext("asset_path", path)
	}
	defer func() { _ = file.Close() }()

	opts := &github.UploadOptions{Name: name, Label: name}
	_, resp, err := ghc.releaseService.UploadReleaseAsset(ctx, ghc.owner, ghc.repo, releaseID, opts, file)
	if err != nil {
		return ghc.mapResponseError(resp, "upload asset", domainErrors.ErrUploadAsset, err)
	}
	return nil
}

func (ghc *GitHubClient) uploadChecksums(ctx context.Context, releaseID int64, checksums string) error {
	dir, err := os.MkdirTemp("", "semrel-checksums-*")
	if err != nil {
		return domainErrors.ErrUploadAsset.WithError(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, ChecksumsAssetName)
	if err := os.WriteFile(path, []byte(checksums), 0644); err != nil {
		return domainErrors.ErrUploadAsset.WithError(err)
	}
	return ghc.uploadFile(ctx, releaseID, ChecksumsAssetName, path)
}
