package models

// Note is a structured trailer extracted from a commit footer, e.g. a
// "BREAKING CHANGE" notice.
type Note struct {
	Title string
	Text  string
}

// CommitRecord is one parsed commit. Values are treated as immutable after
// parsing; slices are never mutated in place.
type CommitRecord struct {
	Hash      string
	ShortHash string
	Header    string
	Type      string
	Scope     string
	Subject   string
	Body      string
	Footer    string
	Breaking  bool
	Notes     []Note
	Author    string
}

// ShortHashLength is the fixed prefix length used for display hashes.
const ShortHashLength = 7

// BreakingNotes returns the text of every breaking-change note.
func (c CommitRecord) BreakingNotes() []string {
	var out []string
	for _, n := range c.Notes {
		if n.Title == NoteBreakingChange {
			out = append(out, n.Text)
		}
	}
	return out
}

const NoteBreakingChange = "BREAKING CHANGE"
