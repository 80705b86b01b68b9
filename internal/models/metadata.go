package models

import (
	"fmt"
	"strings"
)

// MetadataRecord is the persisted "<version>|<auxiliary>" line.
type MetadataRecord struct {
	Version   string
	Auxiliary string
}

func (r MetadataRecord) String() string {
	return r.Version + "|" + r.Auxiliary
}

// ParseMetadataRecord parses a record. Surrounding whitespace is ignored and
// the auxiliary value may itself contain '|'.
func ParseMetadataRecord(s string) (MetadataRecord, error) {
	s = strings.TrimSpace(s)
	version, aux, ok := strings.Cut(s, "|")
	if !ok || version == "" {
		return MetadataRecord{}, fmt.Errorf("malformed metadata record %q", s)
	}
	return MetadataRecord{Version: version, Auxiliary: aux}, nil
}
