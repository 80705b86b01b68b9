package errors

import (
	"errors"
	"testing"
)

func TestAppError_WithError(t *testing.T) {
	baseErr := errors.New("original error")
	appErr := ErrCreateTag.WithError(baseErr)

	if appErr.Err != baseErr {
		t.Errorf("Expected underlying error to be %v, got %v", baseErr, appErr.Err)
	}

	if appErr.Type != TypeGit {
		t.Errorf("Expected type %s, got %s", TypeGit, appErr.Type)
	}

	if appErr.Suggestion != ErrCreateTag.Suggestion {
		t.Errorf("Expected suggestion to be preserved")
	}
}

func TestAppError_WithContext(t *testing.T) {
	appErr := ErrAddFile.WithContext("file", "CHANGELOG.md").WithContext("stderr", "pathspec did not match")

	if appErr.Context["file"] != "CHANGELOG.md" {
		t.Errorf("Expected file context 'CHANGELOG.md', got %v", appErr.Context["file"])
	}

	if ErrAddFile.Context != nil {
		t.Errorf("WithContext must not mutate the sentinel")
	}
}

func TestAppError_Error_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      ErrTokenMissing,
			expected: "CONDITION: Hosting provider token is missing",
		},
		{
			name:     "with underlying error",
			err:      ErrGetBranch.WithError(errors.New("exit status 128")),
			expected: "GIT: Failed to get current branch (exit status 128)",
		},
		{
			name: "with stderr context",
			err: ErrAddFile.WithError(errors.New("exit status 128")).
				WithContext("stderr", "did not match any files"),
			expected: "GIT: Failed to add file to staging (exit status 128) - did not match any files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Is(t *testing.T) {
	t.Run("copies still match their sentinel", func(t *testing.T) {
		err := ErrBranchNotAllowed.WithContext("branch", "feature/x")
		if !errors.Is(err, ErrBranchNotAllowed) {
			t.Error("expected derived error to match sentinel")
		}
	})

	t.Run("wrapped sentinels are found through the chain", func(t *testing.T) {
		err := ErrConditionFailed.WithError(ErrTokenMissing)
		if !errors.Is(err, ErrTokenMissing) {
			t.Error("expected wrapped sentinel to be found")
		}
		if errors.Is(err, ErrToolMissing) {
			t.Error("unexpected match with unrelated sentinel")
		}
	})
}
