package domain

import "fmt"

// Version identifies a liturgical edition or translation.
type Version string

const (
	VersionBCP1979   Version = "BCP1979"
	VersionRiteI     Version = "RiteI"
	VersionRiteII    Version = "RiteII"
	VersionEOW       Version = "EOW"
	VersionExpansive Version = "Expansive"
	VersionNRSV      Version = "NRSV"
	VersionESV       Version = "ESV"
	VersionKJV       Version = "KJV"
	VersionCEB       Version = "CEB"
	VersionCoverdale Version = "Coverdale"
	// VersionParallel marks a side-by-side comparison of several editions.
	VersionParallel Version = "Parallel"
)

// Versions lists every known version in declaration order.
var Versions = []Version{
	VersionBCP1979, VersionRiteI, VersionRiteII, VersionEOW, VersionExpansive,
	VersionNRSV, VersionESV, VersionKJV, VersionCEB, VersionCoverdale, VersionParallel,
}

func (v Version) String() string { return string(v) }

func (v Version) IsValid() bool {
	switch v {
	case VersionBCP1979, VersionRiteI, VersionRiteII, VersionEOW, VersionExpansive,
		VersionNRSV, VersionESV, VersionKJV, VersionCEB, VersionCoverdale, VersionParallel:
		return true
	}
	return false
}

// IsSubsetOf reports whether v is a strictly narrower edition contained in other.
// The relation is never reflexive; callers compare for equality separately.
func (v Version) IsSubsetOf(other Version) bool {
	switch v {
	case VersionRiteI, VersionRiteII, VersionCoverdale:
		return other == VersionBCP1979
	case VersionExpansive:
		return other == VersionEOW
	}
	return false
}

// Matches reports whether a request for v can be served by a page of version candidate.
func (v Version) Matches(candidate Version) bool {
	return v == candidate || v.IsSubsetOf(candidate)
}

// ParseVersion parses a version path segment.
func ParseVersion(s string) (Version, error) {
	v := Version(s)
	if !v.IsValid() {
		return "", NewValidationError("version", fmt.Sprintf("unknown version %q", s))
	}
	return v, nil
}

// Language is the language a document is written in.
type Language string

const (
	LanguageEn Language = "en"
	LanguageEs Language = "es"
	LanguageFr Language = "fr"
	LanguageLa Language = "la"
)

func (l Language) String() string { return string(l) }

func (l Language) IsValid() bool {
	switch l {
	case LanguageEn, LanguageEs, LanguageFr, LanguageLa:
		return true
	}
	return false
}

// ContentKind tags the payload variant carried by a Document.
type ContentKind string

const (
	ContentEmpty    ContentKind = "empty"
	ContentLiturgy  ContentKind = "liturgy"
	ContentSeries   ContentKind = "series"
	ContentParallel ContentKind = "parallel"
	ContentText     ContentKind = "text"
	ContentRubric   ContentKind = "rubric"
	ContentHeading  ContentKind = "heading"
	ContentPrayer   ContentKind = "prayer"
	ContentPsalm    ContentKind = "psalm"
	ContentReading  ContentKind = "reading"
	ContentResponse ContentKind = "response"
	ContentSentence ContentKind = "sentence"
)

func (k ContentKind) String() string { return string(k) }

func (k ContentKind) IsValid() bool {
	switch k {
	case ContentEmpty, ContentLiturgy, ContentSeries, ContentParallel, ContentText,
		ContentRubric, ContentHeading, ContentPrayer, ContentPsalm, ContentReading,
		ContentResponse, ContentSentence:
		return true
	}
	return false
}

// Display controls whether a node is shown in compiled output, in templates, or both.
type Display string

const (
	DisplayShow         Display = "show"
	DisplayHidden       Display = "hidden"
	DisplayTemplateOnly Display = "template_only"
)

func (d Display) String() string { return string(d) }

func (d Display) IsValid() bool {
	switch d {
	case DisplayShow, DisplayHidden, DisplayTemplateOnly, "":
		return true
	}
	return false
}

// Rank orders observances on the liturgical calendar, lowest first.
type Rank string

const (
	RankEmberDay           Rank = "ember_day"
	RankOptionalObservance Rank = "optional_observance"
	RankFerial             Rank = "ferial"
	RankSunday             Rank = "sunday"
	RankHolyDay            Rank = "holy_day"
	RankPrincipalFeast     Rank = "principal_feast"
)

var rankOrder = map[Rank]int{
	RankEmberDay:           0,
	RankOptionalObservance: 1,
	RankFerial:             2,
	RankSunday:             3,
	RankHolyDay:            4,
	RankPrincipalFeast:     5,
}

func (r Rank) String() string { return string(r) }

func (r Rank) IsValid() bool {
	_, ok := rankOrder[r]
	return ok
}

// AtLeast reports whether r ranks equal to or above other. Unknown ranks sort lowest.
func (r Rank) AtLeast(other Rank) bool {
	a, okA := rankOrder[r]
	b, okB := rankOrder[other]
	if !okA {
		return !okB
	}
	return !okB || a >= b
}
