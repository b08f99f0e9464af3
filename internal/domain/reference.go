package domain

import "fmt"

// Source identifies a published book a document is taken from.
type Source string

const (
	SourceBCP1979 Source = "bcp1979"
	SourceEOW1    Source = "eow1"
	SourceEOW2    Source = "eow2"
	SourceLFF2018 Source = "lff2018"
	SourceBOS2022 Source = "bos2022"
	SourceLOC     Source = "loc"
)

var sourceNames = map[Source]string{
	SourceBCP1979: "The Book of Common Prayer (1979)",
	SourceEOW1:    "Enriching Our Worship 1",
	SourceEOW2:    "Enriching Our Worship 2",
	SourceLFF2018: "Lesser Feasts and Fasts 2018",
	SourceBOS2022: "The Book of Occasional Services 2022",
	SourceLOC:     "Liturgy of the Hours",
}

func (s Source) String() string { return string(s) }

func (s Source) IsValid() bool {
	_, ok := sourceNames[s]
	return ok
}

// LongName returns the full title of the source, or the identifier itself when unknown.
func (s Source) LongName() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return string(s)
}

// Reference points at a page within a source book.
type Reference struct {
	Source Source `json:"source" yaml:"source"`
	Page   int    `json:"page"   yaml:"page"`
}

func (r Reference) String() string {
	if r.Page == 0 {
		return r.Source.LongName()
	}
	return fmt.Sprintf("%s p. %d", r.Source.LongName(), r.Page)
}
