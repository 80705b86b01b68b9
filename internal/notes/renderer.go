// Package notes renders release documents from classified commits.
package notes

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/thomas-vilte/semrel/internal/classifier"
	"github.com/thomas-vilte/semrel/internal/errors"
	"github.com/thomas-vilte/semrel/internal/models"
	"github.com/thomas-vilte/semrel/internal/regex"
)

const (
	DefaultHeaderTemplate = `## {{if .CompareURL}}[{{.Version}}]({{.CompareURL}}){{else}}{{.Version}}{{end}} ({{.Date}}){{range .Markers}} {{.}}{{end}}`
	DefaultEntryTemplate  = `{{if .Scope}}**{{.Scope}}:** {{end}}{{.Subject}}{{if .CommitURL}} ([{{.ShortHash}}]({{.CommitURL}})){{else}} ({{.ShortHash}}){{end}}`

	dateLayout = "2006-01-02"
)

// DefaultSections follow the conventional-changelog preset.
func DefaultSections() []models.Section {
	return []models.Section{
		{Title: "Features", Types: []string{"feat"}},
		{Title: "Bug Fixes", Types: []string{"fix"}},
		{Title: "Performance Improvements", Types: []string{"perf"}},
		{Title: "Reverts", Types: []string{"revert"}},
		{Title: "Miscellaneous Chores", Types: []string{"chore", "docs", "style", "refactor", "test", "build", "ci"}, Hidden: true},
	}
}

// HeaderData is what the header template sees.
type HeaderData struct {
	Version     string
	Tag         string
	PreviousTag string
	CompareURL  string
	Date        string
	Branch      string
	Channel     string
	Prerelease  string
	Annotations models.Annotations
	Markers     []string
}

// EntryData is what the entry template sees for one commit.
type EntryData struct {
	Type      string
	Scope     string
	Subject   string
	Hash      string
	ShortHash string
	CommitURL string
	Breaking  bool
	Author    string
}

type Renderer struct {
	sections   []models.Section
	header     *template.Template
	entry      *template.Template
	annotators []classifier.Annotator
	byType     map[string]int
}

type Option func(*rendererConfig)

type rendererConfig struct {
	header     string
	entry      string
	annotators []classifier.Annotator
}

func WithHeaderTemplate(tmpl string) Option {
	return func(c *rendererConfig) {
		if tmpl != "" {
			c.header = tmpl
		}
	}
}

func WithEntryTemplate(tmpl string) Option {
	return func(c *rendererConfig) {
		if tmpl != "" {
			c.entry = tmpl
		}
	}
}

// WithAnnotators supplies the annotation rules whose markers may appear in
// the header.
func WithAnnotators(a []classifier.Annotator) Option {
	return func(c *rendererConfig) {
		c.annotators = a
	}
}

// New validates the section list and parses the templates. Any problem is a
// render error.
func New(sections []models.Section, opts ...Option) (*Renderer, error) {
	cfg := &rendererConfig{header: DefaultHeaderTemplate, entry: DefaultEntryTemplate}
	for _, opt := range opts {
		opt(cfg)
	}

	ordered := append([]models.Section(nil), sections...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	byType, err := validateSections(ordered)
	if err != nil {
		return nil, err
	}

	header, err := template.New("header").Option("missingkey=error").Parse(cfg.header)
	if err != nil {
		return nil, errors.ErrRenderTemplate.WithError(err).WithContext("template", "header")
	}
	entry, err := template.New("entry").Option("missingkey=error").Parse(cfg.entry)
	if err != nil {
		return nil, errors.ErrRenderTemplate.WithError(err).WithContext("template", "entry")
	}

	return &Renderer{
		sections:   ordered,
		header:     header,
		entry:      entry,
		annotators: cfg.annotators,
		byType:     byType,
	}, nil
}

func validateSections(sections []models.Section) (map[string]int, error) {
	byType := make(map[string]int)
	titles := make(map[string]bool)
	for i, s := range sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, errors.ErrSectionInvalid.WithError(fmt.Errorf("section %d has no title", i))
		}
		if titles[s.Title] {
			return nil, errors.ErrSectionInvalid.WithError(fmt.Errorf("section %q is declared twice", s.Title))
		}
		titles[s.Title] = true
		if len(s.Types) == 0 {
			return nil, errors.ErrSectionInvalid.WithError(fmt.Errorf("section %q lists no commit types", s.Title))
		}
		for _, t := range s.Types {
			if prev, dup := byType[t]; dup {
				return nil, errors.ErrSectionInvalid.WithError(
					fmt.Errorf("type %q is listed in both %q and %q", t, sections[prev].Title, s.Title))
			}
			byType[t] = i
		}
	}
	return byType, nil
}

// Render groups commits into the non-hidden sections and renders the
// document. Output depends only on the arguments; the date comes from
// rc.Timestamp. Commits of unknown types and hidden sections are dropped,
// including their breaking notes.
func (r *Renderer) Render(commits []models.CommitRecord, rc *models.ReleaseContext) (*models.ReleaseDocument, error) {
	doc := &models.ReleaseDocument{}

	header, err := r.renderHeader(rc)
	if err != nil {
		return nil, err
	}
	doc.Header = header

	repo := RepositoryWebURL(rc.RepositoryURL)
	entries := make([][]string, len(r.sections))
	for _, c := range commits {
		idx, ok := r.byType[c.Type]
		if !ok || r.sections[idx].Hidden {
			continue
		}
		line, err := r.renderEntry(c, repo)
		if err != nil {
			return nil, err
		}
		entries[idx] = append(entries[idx], line)
		doc.BreakingNotes = append(doc.BreakingNotes, c.BreakingNotes()...)
	}

	for i, s := range r.sections {
		if s.Hidden || len(entries[i]) == 0 {
			continue
		}
		doc.Sections = append(doc.Sections, models.RenderedSection{Title: s.Title, Entries: entries[i]})
	}

	return doc, nil
}

func (r *Renderer) renderHeader(rc *models.ReleaseContext) (string, error) {
	data := HeaderData{
		Version:     rc.Version,
		Tag:         rc.Tag(),
		PreviousTag: rc.PreviousTag,
		CompareURL:  CompareURL(rc.RepositoryURL, rc.PreviousTag, rc.Tag()),
		Date:        rc.Timestamp.Format(dateLayout),
		Branch:      rc.Branch,
		Channel:     rc.Channel,
		Prerelease:  rc.Prerelease,
		Annotations: rc.Annotations,
		Markers:     classifier.Markers(r.annotators, rc.Annotations),
	}
	var buf bytes.Buffer
	if err := r.header.Execute(&buf, data); err != nil {
		return "", errors.ErrRenderTemplate.WithError(err).WithContext("template", "header")
	}
	return strings.TrimSpace(buf.String()), nil
}

func (r *Renderer) renderEntry(c models.CommitRecord, repo string) (string, error) {
	data := EntryData{
		Type:      c.Type,
		Scope:     c.Scope,
		Subject:   c.Subject,
		Hash:      c.Hash,
		ShortHash: c.ShortHash,
		Breaking:  c.Breaking,
		Author:    c.Author,
	}
	if repo != "" && c.Hash != "" {
		data.CommitURL = repo + "/commit/" + c.Hash
	}
	var buf bytes.Buffer
	if err := r.entry.Execute(&buf, data); err != nil {
		return "", errors.ErrRenderTemplate.WithError(err).
			WithContext("template", "entry").
			WithContext("hash", c.Hash)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Render is New followed by Render with default templates.
func Render(commits []models.CommitRecord, sections []models.Section, rc *models.ReleaseContext) (*models.ReleaseDocument, error) {
	r, err := New(sections)
	if err != nil {
		return nil, err
	}
	return r.Render(commits, rc)
}

// RepositoryWebURL turns a clone URL into the https base used for links.
// Unknown formats yield "".
func RepositoryWebURL(repoURL string) string {
	repoURL = strings.TrimSpace(repoURL)
	if m := regex.SSHRepo.FindStringSubmatch(repoURL); m != nil {
		return fmt.Sprintf("https://%s/%s/%s", m[1], m[2], m[3])
	}
	if m := regex.HTTPSRepo.FindStringSubmatch(repoURL); m != nil {
		return fmt.Sprintf("https://%s/%s/%s", m[1], m[2], m[3])
	}
	return ""
}

// CompareURL links the previous tag to the new one, or "" without a
// previous tag or a known repository.
func CompareURL(repoURL, previousTag, tag string) string {
	repo := RepositoryWebURL(repoURL)
	if repo == "" || previousTag == "" || tag == "" {
		return ""
	}
	return fmt.Sprintf("%s/compare/%s...%s", repo, previousTag, tag)
}
