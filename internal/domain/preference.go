package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// GlobalPref is a preference shared by every liturgy.
type GlobalPref string

const (
	GlobalPrefBibleVersion   GlobalPref = "BibleVersion"
	GlobalPrefPsalterVersion GlobalPref = "PsalterVersion"
	GlobalPrefLanguage       GlobalPref = "Language"
)

// PreferenceKey names a preference either globally or within one liturgy.
// Exactly one field is set.
type PreferenceKey struct {
	Global GlobalPref `json:"Global,omitempty" yaml:"global,omitempty"`
	Local  string     `json:"Local,omitempty"  yaml:"local,omitempty"`
}

// GlobalKey builds a key for a global preference.
func GlobalKey(p GlobalPref) PreferenceKey { return PreferenceKey{Global: p} }

// LocalKey builds a key for a liturgy-specific preference.
func LocalKey(name string) PreferenceKey { return PreferenceKey{Local: name} }

func (k PreferenceKey) String() string {
	if k.Global != "" {
		return "global:" + string(k.Global)
	}
	return "local:" + k.Local
}

func (k PreferenceKey) valid() bool {
	return (k.Global == "") != (k.Local == "")
}

// PreferenceValue is either a version choice or a liturgy-specific option.
type PreferenceValue struct {
	Version Version `json:"Version,omitempty" yaml:"version,omitempty"`
	Local   string  `json:"Local,omitempty"   yaml:"local,omitempty"`
}

func (v PreferenceValue) valid() bool {
	return (v.Version == "") != (v.Local == "")
}

// PreferenceOption is one selectable value of a LiturgyPreference.
type PreferenceOption struct {
	Label string          `json:"label" yaml:"label"`
	Value PreferenceValue `json:"value" yaml:"value"`
}

// LiturgyPreference describes a choice a liturgy offers to its reader.
type LiturgyPreference struct {
	Key     PreferenceKey      `json:"key"     yaml:"key"`
	Label   string             `json:"label"   yaml:"label"`
	Options []PreferenceOption `json:"options" yaml:"options"`
	Default int                `json:"default" yaml:"default"`
}

// Liturgy holds the details of a liturgy-content node.
type Liturgy struct {
	Evening     bool                `json:"evening"               yaml:"evening"`
	Preferences []LiturgyPreference `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Equal reports structural equality.
func (l Liturgy) Equal(other Liturgy) bool {
	return l.Evening == other.Evening &&
		slices.EqualFunc(l.Preferences, other.Preferences, func(a, b LiturgyPreference) bool {
			return a.Key == b.Key && a.Label == b.Label && a.Default == b.Default &&
				slices.Equal(a.Options, b.Options)
		})
}

// Clone returns a deep copy.
func (l Liturgy) Clone() Liturgy {
	out := Liturgy{Evening: l.Evening}
	if l.Preferences != nil {
		out.Preferences = make([]LiturgyPreference, len(l.Preferences))
		for i, p := range l.Preferences {
			p.Options = slices.Clone(p.Options)
			out.Preferences[i] = p
		}
	}
	return out
}

// Preferences maps each chosen preference key to its value. On the wire it is
// a sequence of [key, value] pairs because JSON objects only accept string keys.
type Preferences map[PreferenceKey]PreferenceValue

// ParsePreferences decodes the pair-sequence form. An empty string yields an empty set.
func ParsePreferences(raw string) (Preferences, error) {
	prefs := make(Preferences)
	if raw == "" {
		return prefs, nil
	}

	var pairs []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, NewValidationError("preferences", "must be a JSON array of [key, value] pairs")
	}
	for i, rawPair := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(rawPair, &pair); err != nil || len(pair) != 2 {
			return nil, NewValidationError("preferences", fmt.Sprintf("entry %d is not a [key, value] pair", i))
		}
		var key PreferenceKey
		var value PreferenceValue
		if err := json.Unmarshal(pair[0], &key); err != nil || !key.valid() {
			return nil, NewValidationError("preferences", fmt.Sprintf("entry %d has an invalid key", i))
		}
		if err := json.Unmarshal(pair[1], &value); err != nil || !value.valid() {
			return nil, NewValidationError("preferences", fmt.Sprintf("entry %d has an invalid value", i))
		}
		prefs[key] = value
	}
	return prefs, nil
}

// Keys returns the keys sorted globals first, then locals, each alphabetically.
func (p Preferences) Keys() []PreferenceKey {
	keys := make([]PreferenceKey, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b PreferenceKey) int {
		return cmp.Or(
			cmp.Compare(keyGroup(a), keyGroup(b)),
			cmp.Compare(a.Global, b.Global),
			cmp.Compare(a.Local, b.Local),
		)
	})
	return keys
}

func keyGroup(k PreferenceKey) int {
	if k.Global != "" {
		return 0
	}
	return 1
}

// EncodePairs renders the pair-sequence form in a deterministic order.
func (p Preferences) EncodePairs() (string, error) {
	pairs := make([][2]any, 0, len(p))
	for _, k := range p.Keys() {
		pairs = append(pairs, [2]any{k, p[k]})
	}
	b, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("encode preferences: %w", err)
	}
	return string(b), nil
}
