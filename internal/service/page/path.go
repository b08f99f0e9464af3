package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// ParsePath decodes an escaped document path of the form
//
//	{category}[/{slug}][/{version}][/{date}[/{calendar}[/{prefs}[/{alternate}]]]]
//
// The segment after the category is a version when it names one and a slug
// otherwise. Everything after the date is positional; empty segments are skipped.
func ParsePath(escaped string) (Request, error) {
	var req Request

	raw := strings.Split(strings.Trim(escaped, "/"), "/")
	segs := make([]string, 0, len(raw))
	for i, s := range raw {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return req, domain.NewValidationError("path", fmt.Sprintf("segment %d is not properly escaped", i))
		}
		segs = append(segs, decoded)
	}
	if len(segs) == 0 || segs[0] == "" {
		return req, domain.NewValidationError("category", "required")
	}

	req.Category = segs[0]
	rest := segs[1:]

	if len(rest) > 0 && !isDateSegment(rest[0]) {
		if v := domain.Version(rest[0]); v.IsValid() {
			req.Version = &v
		} else {
			slug := rest[0]
			req.Slug = &slug
		}
		rest = rest[1:]
	}
	if req.Slug != nil && len(rest) > 0 && !isDateSegment(rest[0]) {
		v, err := domain.ParseVersion(rest[0])
		if err != nil {
			return req, err
		}
		req.Version = &v
		rest = rest[1:]
	}

	if len(rest) == 0 {
		return req, nil
	}
	date, err := domain.ParseDate(rest[0])
	if err != nil {
		return req, domain.NewValidationError("date", fmt.Sprintf("invalid date %q", rest[0]))
	}
	req.Date = &date
	rest = rest[1:]

	targets := []*string{&req.Calendar, &req.Preferences, &req.Alternate}
	if len(rest) > len(targets) {
		return req, domain.NewValidationError("path", "too many segments")
	}
	for i, s := range rest {
		*targets[i] = s
	}
	return req, nil
}

// isDateSegment reports whether s has the YYYY-MM-DD shape. Validity is
// checked by the caller so that a malformed date is reported as such.
func isDateSegment(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
