package domain

import (
	"slices"
	"strings"
)

// Document is a node in a liturgical content tree. Leaves carry text; containers
// carry children. Documents are values: every transform returns a new tree.
type Document struct {
	Content   Content    `json:"content"             yaml:"content"`
	Children  []Document `json:"children,omitempty"  yaml:"children,omitempty"`
	Tags      []string   `json:"tags,omitempty"      yaml:"tags,omitempty"`
	Label     *string    `json:"label,omitempty"     yaml:"label,omitempty"`
	Subtitle  *string    `json:"subtitle,omitempty"  yaml:"subtitle,omitempty"`
	Source    *Reference `json:"source,omitempty"    yaml:"source,omitempty"`
	Version   Version    `json:"version,omitempty"   yaml:"version,omitempty"`
	Language  Language   `json:"language,omitempty"  yaml:"language,omitempty"`
	Display   Display    `json:"display,omitempty"   yaml:"display,omitempty"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Content is the payload of a single node. Equality is structural.
type Content struct {
	Kind    ContentKind `json:"kind"              yaml:"kind"`
	Text    string      `json:"text,omitempty"    yaml:"text,omitempty"`
	Lines   []string    `json:"lines,omitempty"   yaml:"lines,omitempty"`
	Liturgy *Liturgy    `json:"liturgy,omitempty" yaml:"liturgy,omitempty"`
}

// Equal reports deep structural equality of two payloads.
func (c Content) Equal(other Content) bool {
	if c.Kind != other.Kind || c.Text != other.Text || !slices.Equal(c.Lines, other.Lines) {
		return false
	}
	if c.Liturgy == nil || other.Liturgy == nil {
		return c.Liturgy == nil && other.Liturgy == nil
	}
	return c.Liturgy.Equal(*other.Liturgy)
}

func (c Content) clone() Content {
	out := c
	out.Lines = slices.Clone(c.Lines)
	if c.Liturgy != nil {
		l := c.Liturgy.Clone()
		out.Liturgy = &l
	}
	return out
}

// Condition gates a node on calendar or preference state. It is evaluated by the
// document compiler; the resolver only inspects whether it depends on a date.
type Condition struct {
	Kind string            `json:"kind"           yaml:"kind"`
	Args map[string]string `json:"args,omitempty" yaml:"args,omitempty"`
	Any  []Condition       `json:"any,omitempty"  yaml:"any,omitempty"`
	All  []Condition       `json:"all,omitempty"  yaml:"all,omitempty"`
	Not  *Condition        `json:"not,omitempty"  yaml:"not,omitempty"`
}

var dateConditionKinds = []string{"date", "day", "weekday", "season", "feast", "rank", "evening"}

// DependsOnDate reports whether the condition, or any nested condition, reads calendar state.
func (c Condition) DependsOnDate() bool {
	if slices.Contains(dateConditionKinds, c.Kind) {
		return true
	}
	for _, sub := range c.Any {
		if sub.DependsOnDate() {
			return true
		}
	}
	for _, sub := range c.All {
		if sub.DependsOnDate() {
			return true
		}
	}
	return c.Not != nil && c.Not.DependsOnDate()
}

func (c Condition) clone() Condition {
	out := Condition{Kind: c.Kind}
	if c.Args != nil {
		out.Args = make(map[string]string, len(c.Args))
		for k, v := range c.Args {
			out.Args[k] = v
		}
	}
	for _, sub := range c.Any {
		out.Any = append(out.Any, sub.clone())
	}
	for _, sub := range c.All {
		out.All = append(out.All, sub.clone())
	}
	if c.Not != nil {
		n := c.Not.clone()
		out.Not = &n
	}
	return out
}

// EmptyDocument returns the explicit placeholder used where no content exists.
func EmptyDocument() Document {
	return Document{Content: Content{Kind: ContentEmpty}}
}

// IsEmpty reports whether d is an empty-content leaf.
func (d Document) IsEmpty() bool {
	return d.Content.Kind == ContentEmpty && len(d.Children) == 0
}

// Clone returns a deep copy sharing no memory with d.
func (d Document) Clone() Document {
	out := d
	out.Content = d.Content.clone()
	out.Tags = slices.Clone(d.Tags)
	out.Label = clonePtr(d.Label)
	out.Subtitle = clonePtr(d.Subtitle)
	out.Source = clonePtr(d.Source)
	if d.Condition != nil {
		c := d.Condition.clone()
		out.Condition = &c
	}
	if d.Children != nil {
		out.Children = make([]Document, len(d.Children))
		for i, child := range d.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// HasTag reports whether d carries tag.
func (d Document) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// ChildrenWithTag returns deep copies of the direct children carrying tag, in order.
func (d Document) ChildrenWithTag(tag string) []Document {
	var out []Document
	for _, child := range d.Children {
		if child.HasTag(tag) {
			out = append(out, child.Clone())
		}
	}
	return out
}

// SeriesOrDocument collapses docs into one node: the empty placeholder for none,
// the document itself for one, and a series container for several.
func SeriesOrDocument(docs []Document) Document {
	switch len(docs) {
	case 0:
		return EmptyDocument()
	case 1:
		return docs[0].Clone()
	}
	children := make([]Document, len(docs))
	for i, doc := range docs {
		children[i] = doc.Clone()
	}
	return Document{Content: Content{Kind: ContentSeries}, Children: children}
}

// SameContent compares payloads of two trees, ignoring labels, tags and provenance.
func (d Document) SameContent(other Document) bool {
	if !d.Content.Equal(other.Content) || len(d.Children) != len(other.Children) {
		return false
	}
	for i := range d.Children {
		if !d.Children[i].SameContent(other.Children[i]) {
			return false
		}
	}
	return true
}

// IntoTemplate returns the dateless form of d: a copy with hidden nodes removed.
// It returns nil when d itself is hidden. Applying it twice yields the same tree.
func (d Document) IntoTemplate() *Document {
	if d.Display == DisplayHidden {
		return nil
	}
	out := d.Clone()
	out.Children = nil
	for _, child := range d.Children {
		if t := child.IntoTemplate(); t != nil {
			out.Children = append(out.Children, *t)
		}
	}
	return &out
}

// HasDateCondition reports whether any node in the tree is conditioned on the calendar.
func (d Document) HasDateCondition() bool {
	if d.Condition != nil && d.Condition.DependsOnDate() {
		return true
	}
	return slices.ContainsFunc(d.Children, Document.HasDateCondition)
}

// LabelOr returns the label, or fallback when none is set.
func (d Document) LabelOr(fallback string) string {
	if d.Label != nil {
		return *d.Label
	}
	return fallback
}

// PlainText flattens the visible text of the tree for searching.
func (d Document) PlainText() string {
	var b strings.Builder
	d.writeText(&b)
	return strings.TrimSpace(b.String())
}

func (d Document) writeText(b *strings.Builder) {
	for _, s := range []*string{d.Label, d.Subtitle} {
		if s != nil && *s != "" {
			b.WriteString(*s)
			b.WriteByte('\n')
		}
	}
	if d.Content.Text != "" {
		b.WriteString(d.Content.Text)
		b.WriteByte('\n')
	}
	for _, line := range d.Content.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, child := range d.Children {
		child.writeText(b)
	}
}

// ContainsCaseInsensitive reports whether query occurs anywhere in the tree's text.
func (d Document) ContainsCaseInsensitive(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.PlainText()), query)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
