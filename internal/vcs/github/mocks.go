package github

import (
	"context"
	"os"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/mock"
)

type MockReleaseService struct {
	mock.Mock
}

func (m *MockReleaseService) CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error) {
	args := m.Called(ctx, owner, repo, release)
	var rel *github.RepositoryRelease
	if v := args.Get(0); v != nil {
		rel = v.(*github.RepositoryRelease)
	}
	var resp *github.Response
	if v := args.Get(1); v != nil {
		resp = v.(*github.Response)
	}
	return rel, resp, args.Error(2)
}

func (m *MockReleaseService) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error) {
	args := m.Called(ctx, owner, repo, tag)
	var rel *github.RepositoryRelease
	if v := args.Get(0); v != nil {
		rel = v.(*github.RepositoryRelease)
	}
	var resp *github.Response
	if v := args.Get(1); v != nil {
		resp = v.(*github.Response)
	}
	return rel, resp, args.Error(2)
}

func (m *MockReleaseService) UploadReleaseAsset(ctx context.Context, owner, repo string, id int64, opt *github.UploadOptions, file *os.File) (*github.ReleaseAsset, *github.Response, error) {
	args := m.Called(ctx, owner, repo, id, opt, file)
	var asset *github.ReleaseAsset
	if v := args.Get(0); v != nil {
		asset = v.(*github.ReleaseAsset)
	}
	var resp *github.Response
	if v := args.Get(1); v != nil {
		resp = v.(*github.Response)
	}
	return asset, resp, args.Error(2)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Get(ctx context.Context, user string) (*github.User, *github.Response, error) {
	args := m.Called(ctx, user)
	var u *github.User
	if v := args.Get(0); v != nil {
		u = v.(*github.User)
	}
	var resp *github.Response
	if v := args.Get(1); v != nil {
		resp = v.(*github.Response)
	}
	return u, resp, args.Error(2)
}
