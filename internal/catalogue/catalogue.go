// Package catalogue holds the read-only class/topic dataset the bot navigates.
// A Store is built once at startup and never mutated, so it is safe to share
// across any number of concurrently handled updates.
package catalogue

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalid wraps every validation failure reported by New.
var ErrInvalid = errors.New("catalogue: invalid data")

// Topic is one numbered lesson inside a class.
type Topic struct {
	Num    int      `json:"num"`
	Title  string   `json:"title,omitempty"`
	Folder string   `json:"folder"`
	Images []string `json:"images"`
}

// Label is the human name of the topic: its title, or "Параграф N" when untitled.
func (t Topic) Label() string {
	if title := strings.TrimSpace(t.Title); title != "" {
		return title
	}
	return "Параграф " + strconv.Itoa(t.Num)
}

// TestLink points at an external quiz for a topic.
type TestLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SourceLink points at supplementary reading for a topic.
type SourceLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Key addresses a topic within the catalogue.
type Key struct {
	Class string
	Topic int
}

// String renders the stable "<class>|<topic>" form used in data files and the database.
func (k Key) String() string {
	return k.Class + "|" + strconv.Itoa(k.Topic)
}

// ParseKey reverses Key.String. Only the canonical form is accepted, so two
// distinct keys in a data file never address the same topic.
func ParseKey(s string) (Key, error) {
	class, num, ok := strings.Cut(s, "|")
	if !ok || class == "" {
		return Key{}, fmt.Errorf("%w: key %q is not <class>|<topic>", ErrInvalid, s)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return Key{}, fmt.Errorf("%w: key %q has non-numeric topic", ErrInvalid, s)
	}
	k := Key{Class: class, Topic: n}
	if n < 1 || k.String() != s {
		return Key{}, fmt.Errorf("%w: key %q is not canonical", ErrInvalid, s)
	}
	return k, nil
}

// Data is the serialisable form of the catalogue.
type Data struct {
	Classes []string                `json:"classes"`
	Topics  map[string][]Topic      `json:"topics"`
	Tests   map[string][]TestLink   `json:"tests,omitempty"`
	Sources map[string][]SourceLink `json:"sources,omitempty"`
}

// Store is the immutable, validated catalogue.
type Store struct {
	classes []string
	known   map[string]struct{}
	topics  map[string][]Topic
	index   map[Key]int
	tests   map[Key][]TestLink
	sources map[Key][]SourceLink
}

// New validates d and builds a Store. Topics are ordered by number; links keyed to
// topics that do not exist are kept but can never be reached through navigation.
func New(d Data) (*Store, error) {
	s := &Store{
		known:   make(map[string]struct{}, len(d.Classes)),
		topics:  make(map[string][]Topic, len(d.Topics)),
		index:   make(map[Key]int),
		tests:   make(map[Key][]TestLink, len(d.Tests)),
		sources: make(map[Key][]SourceLink, len(d.Sources)),
	}

	for _, id := range d.Classes {
		if err := validateClassID(id); err != nil {
			return nil, err
		}
		if _, dup := s.known[id]; dup {
			return nil, fmt.Errorf("%w: class %q listed twice", ErrInvalid, id)
		}
		s.known[id] = struct{}{}
		s.classes = append(s.classes, id)
	}

	for class, topics := range d.Topics {
		if _, ok := s.known[class]; !ok {
			return nil, fmt.Errorf("%w: topics given for undeclared class %q", ErrInvalid, class)
		}
		sorted := make([]Topic, 0, len(topics))
		for _, t := range topics {
			if t.Num < 1 {
				return nil, fmt.Errorf("%w: class %q has topic number %d", ErrInvalid, class, t.Num)
			}
			if strings.TrimSpace(t.Folder) == "" {
				return nil, fmt.Errorf("%w: topic %s has no folder", ErrInvalid, Key{class, t.Num})
			}
			t.Images = slices.Clone(t.Images)
			if t.Images == nil {
				t.Images = []string{}
			}
			sorted = append(sorted, t)
		}
		slices.SortStableFunc(sorted, func(a, b Topic) int { return a.Num - b.Num })
		for i, t := range sorted {
			if i > 0 && sorted[i-1].Num == t.Num {
				return nil, fmt.Errorf("%w: topic %s defined twice", ErrInvalid, Key{class, t.Num})
			}
			s.index[Key{class, t.Num}] = i
		}
		s.topics[class] = sorted
	}

	for raw, links := range d.Tests {
		key, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if err := validateLink(l.URL); err != nil {
				return nil, fmt.Errorf("test for %s: %w", key, err)
			}
		}
		s.tests[key] = slices.Clone(links)
	}

	for raw, links := range d.Sources {
		key, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if err := validateLink(l.URL); err != nil {
				return nil, fmt.Errorf("source for %s: %w", key, err)
			}
		}
		s.sources[key] = slices.Clone(links)
	}

	return s, nil
}

// validateClassID rejects ids that would break the callback token grammar.
func validateClassID(id string) error {
	if id == "" || strings.ContainsAny(id, ":| \t\r\n") {
		return fmt.Errorf("%w: class id %q", ErrInvalid, id)
	}
	return nil
}

func validateLink(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
		!strings.HasPrefix(raw, u.Scheme+"://") {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalid, raw)
	}
	return nil
}

// Classes returns the class ids in catalogue order.
func (s *Store) Classes() []string {
	return slices.Clone(s.classes)
}

// HasClass reports whether id is a known class.
func (s *Store) HasClass(id string) bool {
	_, ok := s.known[id]
	return ok
}

// TopicsOf returns the topics of a class ordered by number; empty for unknown classes.
func (s *Store) TopicsOf(class string) []Topic {
	topics := s.topics[class]
	out := make([]Topic, len(topics))
	for i, t := range topics {
		out[i] = cloneTopic(t)
	}
	return out
}

// Topic looks a single topic up by class and number.
func (s *Store) Topic(class string, num int) (Topic, bool) {
	i, ok := s.index[Key{class, num}]
	if !ok {
		return Topic{}, false
	}
	return cloneTopic(s.topics[class][i]), true
}

// Neighbours returns the numbers of the topics placed immediately before and after
// num in its class. Gaps in numbering are skipped.
func (s *Store) Neighbours(class string, num int) (prev, next int, hasPrev, hasNext bool) {
	i, ok := s.index[Key{class, num}]
	if !ok {
		return 0, 0, false, false
	}
	topics := s.topics[class]
	if i > 0 {
		prev, hasPrev = topics[i-1].Num, true
	}
	if i < len(topics)-1 {
		next, hasNext = topics[i+1].Num, true
	}
	return prev, next, hasPrev, hasNext
}

// TestsFor returns the test links of a topic in catalogue order.
func (s *Store) TestsFor(class string, num int) []TestLink {
	return slices.Clone(s.tests[Key{class, num}])
}

// SourcesFor returns the source links of a topic in catalogue order.
func (s *Store) SourcesFor(class string, num int) []SourceLink {
	return slices.Clone(s.sources[Key{class, num}])
}

// Stats summarises the store for startup logs.
type Stats struct {
	Classes int
	Topics  int
	Images  int
	Tests   int
	Sources int
}

// Stats counts the store's contents.
func (s *Store) Stats() Stats {
	st := Stats{Classes: len(s.classes)}
	for _, topics := range s.topics {
		st.Topics += len(topics)
		for _, t := range topics {
			st.Images += len(t.Images)
		}
	}
	for _, l := range s.tests {
		st.Tests += len(l)
	}
	for _, l := range s.sources {
		st.Sources += len(l)
	}
	return st
}

// Data converts the store back to its serialisable form.
func (s *Store) Data() Data {
	d := Data{
		Classes: s.Classes(),
		Topics:  make(map[string][]Topic, len(s.topics)),
		Tests:   make(map[string][]TestLink, len(s.tests)),
		Sources: make(map[string][]SourceLink, len(s.sources)),
	}
	for class := range s.topics {
		d.Topics[class] = s.TopicsOf(class)
	}
	for k, l := range s.tests {
		d.Tests[k.String()] = slices.Clone(l)
	}
	for k, l := range s.sources {
		d.Sources[k.String()] = slices.Clone(l)
	}
	return d
}

func cloneTopic(t Topic) Topic {
	t.Images = slices.Clone(t.Images)
	return t
}
