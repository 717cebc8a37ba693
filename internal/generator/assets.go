package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/m3rciful/topicbot/core/logger"
	"github.com/m3rciful/topicbot/internal/catalogue"
)

var (
	topicFolderRe = regexp.MustCompile(`^\s*(\d+)\s*(?:\.\s*(.+))?\s*$`)

	imageExts = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}}
)

// ScanAssets walks dir/<class>/<topic folder>/ and returns the classes in numeric
// order with their topics. Class directories must be all digits. Topic folders are
// "N" or "N. Title". Only jpg, jpeg, png and webp files count as images. A missing
// dir yields an empty result.
func ScanAssets(ctx context.Context, dir string) ([]string, map[string][]catalogue.Topic, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.LogEvent(ctx, logger.CAT, slog.LevelWarn, "generator.assets_missing", slog.String("dir", dir))
		return []string{}, map[string][]catalogue.Topic{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("generator: read assets: %w", err)
	}

	var classes []string
	for _, e := range entries {
		if e.IsDir() && digitsRe.MatchString(e.Name()) {
			classes = append(classes, e.Name())
		}
	}
	slices.SortFunc(classes, compareClassIDs)

	order := newNaturalOrder()
	topics := make(map[string][]catalogue.Topic, len(classes))
	for _, cls := range classes {
		list, err := scanClass(ctx, filepath.Join(dir, cls), order)
		if err != nil {
			return nil, nil, err
		}
		topics[cls] = list
	}
	if classes == nil {
		classes = []string{}
	}
	return classes, topics, nil
}

func scanClass(ctx context.Context, dir string, order *naturalOrder) ([]catalogue.Topic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("generator: read class dir: %w", err)
	}
	topics := []catalogue.Topic{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		num, title, ok := parseTopicFolder(e.Name())
		if !ok {
			continue
		}
		if num < 1 {
			logger.LogEvent(ctx, logger.CAT, slog.LevelWarn, "generator.topic_skipped",
				slog.String("folder", filepath.Join(dir, e.Name())),
				slog.String("reason", "topic numbers start at 1"))
			continue
		}
		images, err := scanImages(filepath.Join(dir, e.Name()), order)
		if err != nil {
			return nil, err
		}
		topics = append(topics, catalogue.Topic{Num: num, Title: title, Folder: e.Name(), Images: images})
	}
	slices.SortStableFunc(topics, func(a, b catalogue.Topic) int { return a.Num - b.Num })
	return topics, nil
}

func scanImages(dir string, order *naturalOrder) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("generator: read topic dir: %w", err)
	}
	images := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			images = append(images, e.Name())
		}
	}
	slices.SortFunc(images, order.Compare)
	return images, nil
}

// parseTopicFolder reads "14" or "1. Ткани и мышцы".
func parseTopicFolder(name string) (num int, title string, ok bool) {
	m := topicFolderRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return num, strings.TrimSpace(m[2]), true
}

func compareClassIDs(a, b string) int {
	if c := compareDigits(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
