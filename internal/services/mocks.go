package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/vcs"
)

type (
	MockGitService struct {
		mock.Mock
	}

	MockPublisher struct {
		mock.Mock
	}
)

func (m *MockGitService) Tags(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGitService) CommitsSince(ctx context.Context, tag string) ([]models.CommitRecord, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CommitRecord), args.Error(1)
}

func (m *MockGitService) TagExists(ctx context.Context, tag string) bool {
	return m.Called(ctx, tag).Bool(0)
}

func (m *MockGitService) RemoteTagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *MockGitService) CreateTag(ctx context.Context, tag, message string) error {
	return m.Called(ctx, tag, message).Error(0)
}

func (m *MockGitService) PushTag(ctx context.Context, tag string) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockGitService) AddFileToStaging(ctx context.Context, file string) error {
	return m.Called(ctx, file).Error(0)
}

func (m *MockGitService) HasStagedChanges(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockGitService) CreateCommit(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockGitService) Push(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGitService) ValidateGitConfig(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGitService) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGitService) RemoteURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPublisher) Publish(ctx context.Context, req vcs.PublishRequest) (*models.PublishedRelease, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishedRelease), args.Error(1)
}

func (m *MockPublisher) VerifyAccess(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
