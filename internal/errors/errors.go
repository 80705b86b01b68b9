package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration  ErrorType = "CONFIGURATION"
	TypeCondition      ErrorType = "CONDITION"
	TypeClassification ErrorType = "CLASSIFICATION"
	TypeRender         ErrorType = "RENDER"
	TypePrepare        ErrorType = "PREPARE"
	TypePublish        ErrorType = "PUBLISH"
	TypeCommit         ErrorType = "COMMIT"
	TypeHook           ErrorType = "HOOK"
	TypeGit            ErrorType = "GIT"
	TypeVCS            ErrorType = "VCS"
	TypeInternal       ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError with the same type and message, so sentinel
// values keep working after WithError/WithContext produced a copy.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Git errors
var (
	ErrNoChanges = NewAppError(TypeGit, "No staged changes detected", nil).
			WithSuggestion("Check that the release assets were actually modified")

	ErrGetBranch = NewAppError(TypeGit, "Failed to get current branch", nil).
			WithSuggestion("Make sure you are in a git repository: git status")

	ErrNoBranch = NewAppError(TypeGit, "No branch detected", nil).
			WithSuggestion("CI checkouts are often detached; check out the branch explicitly")

	ErrGetRepoRoot = NewAppError(TypeGit, "Failed to get repository root", nil).
			WithSuggestion("Make sure you are inside a git repository")

	ErrGetRepoURL = NewAppError(TypeGit, "Failed to get repository URL", nil).
			WithSuggestion("Add a remote: git remote add origin <url>")

	ErrGetCommits = NewAppError(TypeGit, "Failed to get commits", nil).
			WithSuggestion("Make sure the clone has full history: git fetch --unshallow")

	ErrAddFile = NewAppError(TypeGit, "Failed to add file to staging", nil).
			WithSuggestion("Check if the file exists and you have write permissions")

	ErrExtractRepoInfo = NewAppError(TypeGit, "Failed to extract repository info", nil)

	ErrCreateTag = NewAppError(TypeGit, "Failed to create tag", nil).
			WithSuggestion("Make sure the tag doesn't already exist: git tag -l")

	ErrPushTag = NewAppError(TypeGit, "Failed to push tag", nil).
			WithSuggestion("Check your remote connection: git remote -v")

	ErrPush = NewAppError(TypeGit, "Failed to push to remote", nil).
		WithSuggestion("Verify remote is configured and the CI token can push: git remote -v")

	ErrCreateCommit = NewAppError(TypeGit, "Failed to create commit", nil).
			WithSuggestion("Ensure git user is configured:\n   git config user.name \"Release Bot\"\n   git config user.email \"bot@example.com\"")

	ErrGitUserNotConfigured = NewAppError(TypeGit, "git user.name not configured", nil).
				WithSuggestion("Set the committer name: git config user.name \"Release Bot\"")

	ErrGitEmailNotConfigured = NewAppError(TypeGit, "git user.email not configured", nil).
					WithSuggestion("Set the committer email: git config user.email \"bot@example.com\"")

	ErrInvalidTagFormat = NewAppError(TypeGit, "Tag does not match semver format (vX.Y.Z)", nil).
				WithSuggestion("Use semantic versioning format: v1.0.0, v2.1.3, etc.")

	ErrOpenRepository = NewAppError(TypeGit, "Failed to open repository", nil)

	ErrResolveRevision = NewAppError(TypeGit, "Failed to resolve revision", nil).
				WithSuggestion("List available tags: git tag -l")
)

// Configuration errors
var (
	ErrConfigMissing = NewAppError(TypeConfiguration, "Configuration is missing", nil).
				WithSuggestion("Initialize configuration: semrel config init")

	ErrConfigInvalid = NewAppError(TypeConfiguration, "Configuration is invalid", nil).
				WithSuggestion("Review the file printed by: semrel config show")

	ErrConfigFormat = NewAppError(TypeConfiguration, "Unsupported configuration format", nil).
			WithSuggestion("Use a .toml, .yaml or .yml file")

	ErrInvalidRule = NewAppError(TypeConfiguration, "Release rule is invalid", nil)

	ErrTemplateInvalid = NewAppError(TypeConfiguration, "Template is invalid", nil)
)

// Condition errors abort a run before anything is mutated.
var (
	ErrConditionFailed = NewAppError(TypeCondition, "Release condition not met", nil)

	ErrBranchNotAllowed = NewAppError(TypeCondition, "Current branch is not configured for releases", nil).
				WithSuggestion("Add the branch to the `branches` list of the configuration")

	ErrTokenMissing = NewAppError(TypeCondition, "Hosting provider token is missing", nil).
			WithSuggestion("Export GITHUB_TOKEN (or GH_TOKEN) in the CI job")

	ErrToolMissing = NewAppError(TypeCondition, "Required tool not found in PATH", nil)
)

// Classification errors never abort; the offending commit is skipped.
var (
	ErrMalformedCommit = NewAppError(TypeClassification, "Malformed commit skipped", nil)
)

// Render errors
var (
	ErrSectionInvalid = NewAppError(TypeRender, "Section configuration is invalid", nil).
				WithSuggestion("Every section needs a title and at least one commit type, and each type may appear once")

	ErrRenderTemplate = NewAppError(TypeRender, "Failed to render release notes", nil)
)

// Sink errors
var (
	ErrPrepareVersionFile = NewAppError(TypePrepare, "Failed to update version file", nil)

	ErrMetadataRecord = NewAppError(TypePrepare, "Failed to update metadata record", nil)

	ErrHookFailed = NewAppError(TypeHook, "Hook command failed", nil)

	ErrPrepareFailed = NewAppError(TypePrepare, "Failed to prepare release", nil)

	ErrPublishFailed = NewAppError(TypePublish, "Failed to publish release", nil)

	ErrCommitFailed = NewAppError(TypeCommit, "Failed to commit release assets", nil)

	ErrChangelog = NewAppError(TypeCommit, "Failed to update changelog", nil)
)

// VCS errors
var (
	ErrRepositoryNotFound = NewAppError(TypeVCS, "repository not found", nil).
				WithSuggestion("Check repository URL and access permissions")

	ErrCreateRelease = NewAppError(TypeVCS, "failed to create release", nil).
				WithSuggestion("Check your GitHub token has 'contents: write' permissions")

	ErrGetRelease = NewAppError(TypeVCS, "failed to get release", nil)

	ErrUploadAsset = NewAppError(TypeVCS, "failed to upload release asset", nil).
			WithSuggestion("Check file exists and is readable")

	ErrGitHubTokenInvalid = NewAppError(TypeVCS, "GitHub token is invalid or expired", nil).
				WithSuggestion("Generate a new token at: https://github.com/settings/tokens")

	ErrGitHubInsufficientPerms = NewAppError(TypeVCS, "GitHub token has insufficient permissions", nil).
					WithSuggestion("Token needs the 'contents: write' permission")

	ErrGitHubRateLimit = NewAppError(TypeVCS, "GitHub API rate limit exceeded", nil).
				WithSuggestion("Wait a few minutes and re-run the pipeline")
)

var (
	ErrAssetNotFound = NewAppError(TypeInternal, "Asset pattern matched no files", nil).
				WithSuggestion("Check the `assets` globs against the build output")
)
