package generator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/topicbot/core/logger"
	"github.com/m3rciful/topicbot/internal/catalogue"
)

const (
	labelBasic    = "🟢 Базовая сложность"
	labelAdvanced = "🔴 Повышенная сложность"
	labelTest     = "✅ Пройти тест"
)

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	bareDomainRe = regexp.MustCompile(`^[\w.-]+\.[a-zA-Z]{2,}(/|$)`)

	testLabels = map[string]string{
		"basic": labelBasic, "base": labelBasic, "b": labelBasic,
		"базовый": labelBasic, "база": labelBasic, "базовая": labelBasic,

		"advanced": labelAdvanced, "hard": labelAdvanced, "a": labelAdvanced,
		"повыш": labelAdvanced, "повышенная": labelAdvanced, "сложная": labelAdvanced,
		"углубленная": labelAdvanced,

		"test": labelTest, "quiz": labelTest, "тест": labelTest,
	}
)

// Skip describes an input line the generator ignored.
type Skip struct {
	File   string
	Line   int
	Reason string
}

func (s Skip) String() string {
	return fmt.Sprintf("%s:%d: %s", s.File, s.Line, s.Reason)
}

type skipFunc func(line int, reason string)

// reportSkip logs every skipped line of file and forwards it to onSkip when set.
func reportSkip(ctx context.Context, file string, onSkip func(Skip)) skipFunc {
	return func(line int, reason string) {
		logger.LogEvent(ctx, logger.CAT, slog.LevelWarn, "generator.line_skipped",
			slog.String("file", file),
			slog.Int("line", line),
			slog.String("reason", reason),
		)
		if onSkip != nil {
			onSkip(Skip{File: file, Line: line, Reason: reason})
		}
	}
}

// ParseTests reads a tests list. Each line is "class|topic|url" or
// "class|topic|label|url"; blank lines and lines starting with '#' are ignored.
// Lines that do not parse are logged and skipped.
func ParseTests(ctx context.Context, r io.Reader) (map[string][]catalogue.TestLink, error) {
	return parseTests(r, reportSkip(ctx, "tests", nil))
}

func parseTests(r io.Reader, skip skipFunc) (map[string][]catalogue.TestLink, error) {
	out := make(map[string][]catalogue.TestLink)
	err := eachRecord(r, func(line int, parts []string) {
		var cls, topic, label, link string
		switch {
		case len(parts) == 3:
			cls, topic, label, link = parts[0], parts[1], "test", parts[2]
		case len(parts) >= 4:
			cls, topic, label, link = parts[0], parts[1], parts[2], parts[3]
		default:
			skip(line, "too few fields")
			return
		}
		key, link, reason := checkRecord(cls, topic, link)
		if reason != "" {
			skip(line, reason)
			return
		}
		out[key] = append(out[key], catalogue.TestLink{Label: normTestLabel(label), URL: link})
	})
	if err != nil {
		return nil, fmt.Errorf("generator: read tests: %w", err)
	}
	return out, nil
}

// ParseSources reads a sources list of "class|topic|title|url" lines. Extra fields
// are ignored.
func ParseSources(ctx context.Context, r io.Reader) (map[string][]catalogue.SourceLink, error) {
	return parseSources(r, reportSkip(ctx, "sources", nil))
}

func parseSources(r io.Reader, skip skipFunc) (map[string][]catalogue.SourceLink, error) {
	out := make(map[string][]catalogue.SourceLink)
	err := eachRecord(r, func(line int, parts []string) {
		if len(parts) < 4 {
			skip(line, "too few fields")
			return
		}
		key, link, reason := checkRecord(parts[0], parts[1], parts[3])
		if reason != "" {
			skip(line, reason)
			return
		}
		out[key] = append(out[key], catalogue.SourceLink{Title: parts[2], URL: link})
	})
	if err != nil {
		return nil, fmt.Errorf("generator: read sources: %w", err)
	}
	return out, nil
}

func eachRecord(r io.Reader, fn func(line int, parts []string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		fn(n, parts)
	}
	return sc.Err()
}

// checkRecord validates the shared fields of a record and returns its catalogue key
// and normalised link, or a reason to skip it.
func checkRecord(cls, topic, link string) (key, normalized, reason string) {
	if !digitsRe.MatchString(cls) || !digitsRe.MatchString(topic) {
		return "", "", "class and topic must be numbers"
	}
	n, err := strconv.Atoi(topic)
	if err != nil || n < 1 {
		return "", "", "topic number out of range"
	}
	normalized = normalizeURL(link)
	if !isHTTPURL(normalized) {
		return "", "", "not an http(s) link"
	}
	return catalogue.Key{Class: cls, Topic: n}.String(), normalized, ""
}

// normalizeURL adds https:// to Telegram short links and bare domains and
// lower-cases an http(s) scheme. Anything else is returned trimmed.
func normalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "t.me/") || strings.HasPrefix(s, "telegram.me/") {
		return "https://" + s
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		// url.Parse lower-cases the scheme; the stored link must match it.
		return u.Scheme + s[len(u.Scheme):]
	}
	if bareDomainRe.MatchString(s) {
		return "https://" + s
	}
	return s
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// normTestLabel maps difficulty shorthands onto their display labels. An empty
// label becomes the generic test label.
func normTestLabel(label string) string {
	label = strings.TrimSpace(label)
	if mapped, ok := testLabels[strings.ToLower(label)]; ok {
		return mapped
	}
	if label == "" {
		return labelTest
	}
	return label
}
