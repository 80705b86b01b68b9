package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thomas-vilte/semrel/internal/classifier"
	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/notes"
	"github.com/thomas-vilte/semrel/internal/pipeline"
)

type (
	Config struct {
		Branches              []models.BranchSpec     `toml:"branches" yaml:"branches"`
		RepositoryURL         string                  `toml:"repository_url,omitempty" yaml:"repository_url,omitempty"`
		Rules                 []models.ReleaseRule    `toml:"rules" yaml:"rules"`
		Sections              []models.Section        `toml:"sections" yaml:"sections"`
		Annotations           []models.AnnotationRule `toml:"annotations,omitempty" yaml:"annotations,omitempty"`
		Assets                []string                `toml:"assets" yaml:"assets"`
		GitAssets             []string                `toml:"git_assets" yaml:"git_assets"`
		CommitMessageTemplate string                  `toml:"commit_message_template" yaml:"commit_message_template"`
		HeaderTemplate        string                  `toml:"header_template,omitempty" yaml:"header_template,omitempty"`
		EntryTemplate         string                  `toml:"entry_template,omitempty" yaml:"entry_template,omitempty"`
		ChangelogFile         string                  `toml:"changelog_file" yaml:"changelog_file"`
		Metadata              MetadataConfig          `toml:"metadata,omitempty" yaml:"metadata,omitempty"`
		VersionFiles          []models.VersionFile    `toml:"version_files,omitempty" yaml:"version_files,omitempty"`
		Hooks                 HooksConfig             `toml:"hooks,omitempty" yaml:"hooks,omitempty"`
		GitHub                GitHubConfig            `toml:"github" yaml:"github"`
		BestEffortStages      []string                `toml:"best_effort_stages,omitempty" yaml:"best_effort_stages,omitempty"`
		Language              string                  `toml:"language" yaml:"language"`

		// PathFile is where the configuration was loaded from, empty for defaults.
		PathFile string `toml:"-" yaml:"-"`
	}

	// MetadataConfig enables the "<version>|<aux>" record when Path is set.
	MetadataConfig struct {
		Path   string   `toml:"path,omitempty" yaml:"path,omitempty"`
		Paths  []string `toml:"paths,omitempty" yaml:"paths,omitempty"`
		AuxCmd string   `toml:"aux_cmd,omitempty" yaml:"aux_cmd,omitempty"`
	}

	HooksConfig struct {
		VerifyConditionsCmd string `toml:"verify_conditions_cmd,omitempty" yaml:"verify_conditions_cmd,omitempty"`
		PrepareCmd          string `toml:"prepare_cmd,omitempty" yaml:"prepare_cmd,omitempty"`
		PublishCmd          string `toml:"publish_cmd,omitempty" yaml:"publish_cmd,omitempty"`
	}

	GitHubConfig struct {
		Owner    string `toml:"owner,omitempty" yaml:"owner,omitempty"`
		Repo     string `toml:"repo,omitempty" yaml:"repo,omitempty"`
		TokenEnv string `toml:"token_env" yaml:"token_env"`
		Draft    bool   `toml:"draft,omitempty" yaml:"draft,omitempty"`
		Disabled bool   `toml:"disabled,omitempty" yaml:"disabled,omitempty"`
	}
)

const (
	defaultLang          = LangEN
	defaultChangelogFile = "CHANGELOG.md"
	defaultTokenEnv      = "GITHUB_TOKEN"
	fallbackTokenEnv     = "GH_TOKEN"
)

// FileNames are the configuration files looked up in the repository root,
// in order.
var FileNames = []string{".semrel.toml", ".semrel.yaml", ".semrel.yml"}

// Default mirrors a typical semantic-release setup: stable releases from
// master or main, a beta prerelease channel, dist/* assets and a committed
// changelog.
func Default() *Config {
	return &Config{
		Branches: []models.BranchSpec{
			{Name: "master"},
			{Name: "main"},
			{Name: "client-server", Prerelease: "beta", Channel: "beta"},
		},
		Rules:                 classifier.DefaultRules(),
		Sections:              notes.DefaultSections(),
		Assets:                []string{"dist/*"},
		GitAssets:             []string{defaultChangelogFile},
		CommitMessageTemplate: pipeline.DefaultCommitMessageTemplate,
		ChangelogFile:         defaultChangelogFile,
		GitHub:                GitHubConfig{TokenEnv: defaultTokenEnv},
		Language:              defaultLang,
	}
}

// Discover returns the first configuration file present in dir, or "".
func Discover(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadEnv loads dir/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(dir string) error {
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(p); err != nil {
		return errors.ErrConfigInvalid.WithError(err).WithContext("file", p)
	}
	return nil
}

// LoadConfig reads path, or the discovered file in dir when path is empty.
// Without any file the defaults are returned. Missing fields take their
// default values and the result is validated.
func LoadConfig(path, dir string) (*Config, error) {
	if path == "" {
		path = Discover(dir)
		if path == "" {
			cfg := Default()
			return cfg, cfg.Validate()
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.ErrConfigMissing.WithContext("file", path)
	}
	if err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithContext("file", path)
	}

	cfg, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.PathFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.ErrConfigInvalid.WithError(err).WithContext("file", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.ErrConfigInvalid.
				WithError(fmt.Errorf("unknown keys: %v", undecoded)).
				WithContext("file", path)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.ErrConfigInvalid.WithError(err).WithContext("file", path)
		}
	default:
		return nil, errors.ErrConfigFormat.WithContext("file", path)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if len(c.Branches) == 0 {
		c.Branches = d.Branches
	}
	if len(c.Rules) == 0 {
		c.Rules = d.Rules
	}
	if len(c.Sections) == 0 {
		c.Sections = d.Sections
	}
	if c.Assets == nil {
		c.Assets = d.Assets
	}
	if c.GitAssets == nil {
		c.GitAssets = d.GitAssets
	}
	if c.CommitMessageTemplate == "" {
		c.CommitMessageTemplate = d.CommitMessageTemplate
	}
	if c.ChangelogFile == "" {
		c.ChangelogFile = d.ChangelogFile
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = d.GitHub.TokenEnv
	}
	if c.Language == "" {
		c.Language = d.Language
	}
}

// Validate checks every field that can be checked without touching the
// repository: rules and annotations compile, sections and templates parse,
// branch names are unique and best-effort stages exist.
func (c *Config) Validate() error {
	if len(c.Branches) == 0 {
		return invalid("branches", fmt.Errorf("at least one release branch is required"))
	}
	seen := make(map[string]bool)
	for i, b := range c.Branches {
		if strings.TrimSpace(b.Name) == "" {
			return invalid("branches", fmt.Errorf("branch %d has no name", i))
		}
		if seen[b.Name] {
			return invalid("branches", fmt.Errorf("branch %q listed twice", b.Name))
		}
		seen[b.Name] = true
	}

	if _, err := classifier.Compile(c.Rules); err != nil {
		return err
	}
	annotators, err := classifier.CompileAnnotations(c.Annotations)
	if err != nil {
		return err
	}
	if _, err := notes.New(c.Sections,
		notes.WithHeaderTemplate(c.HeaderTemplate),
		notes.WithEntryTemplate(c.EntryTemplate),
		notes.WithAnnotators(annotators),
	); err != nil {
		return err
	}

	for _, s := range c.BestEffortStages {
		name, err := pipeline.ParseStageName(s)
		if err != nil {
			return invalid("best_effort_stages", err)
		}
		if !name.Mutating() {
			return invalid("best_effort_stages", fmt.Errorf("%s cannot be best-effort", name))
		}
	}

	for i, f := range c.VersionFiles {
		if strings.TrimSpace(f.Path) == "" {
			return invalid("version_files", fmt.Errorf("entry %d has no path", i))
		}
	}
	if c.Metadata.Path == "" && (len(c.Metadata.Paths) > 0 || c.Metadata.AuxCmd != "") {
		return invalid("metadata", fmt.Errorf("paths or aux_cmd set without a path"))
	}
	if c.ChangelogFile == "" {
		return invalid("changelog_file", fmt.Errorf("must not be empty"))
	}
	return nil
}

func invalid(field string, err error) error {
	return errors.ErrConfigInvalid.WithError(err).WithContext("field", field)
}

// StageNames returns the configured best-effort stages. Validate must have
// accepted the configuration.
func (c *Config) StageNames() []pipeline.StageName {
	out := make([]pipeline.StageName, 0, len(c.BestEffortStages))
	for _, s := range c.BestEffortStages {
		if n, err := pipeline.ParseStageName(s); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// TokenVar is the environment variable holding the hosting provider token:
// the configured one, or GH_TOKEN when only that is set.
func (c *Config) TokenVar() string {
	if os.Getenv(c.GitHub.TokenEnv) == "" && os.Getenv(fallbackTokenEnv) != "" {
		return fallbackTokenEnv
	}
	return c.GitHub.TokenEnv
}

func (c *Config) Token() string {
	return os.Getenv(c.TokenVar())
}

// Reload returns base unless path names another file, which is loaded
// instead.
func Reload(base *Config, path, dir string) (*Config, error) {
	if path == "" || (base != nil && path == base.PathFile) {
		return base, nil
	}
	return LoadConfig(path, dir)
}

// Marshal encodes the configuration in the format implied by path.
func Marshal(cfg *Config, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, errors.ErrConfigInvalid.WithError(err)
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, errors.ErrConfigInvalid.WithError(err)
		}
		return data, nil
	}
	return nil, errors.ErrConfigFormat.WithContext("file", path)
}

// SaveConfig validates cfg and writes it to cfg.PathFile.
func SaveConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PathFile == "" {
		return errors.ErrConfigMissing.WithError(fmt.Errorf("configuration path is not set"))
	}
	data, err := Marshal(cfg, cfg.PathFile)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.PathFile, data, 0644); err != nil {
		return errors.ErrConfigInvalid.WithError(err).WithContext("file", cfg.PathFile)
	}
	return nil
}
