package generator

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/topicbot/internal/catalogue"
)

const (
	sheetTopics  = "Topics"
	sheetTests   = "Tests"
	sheetSources = "Sources"
)

// WriteReport renders d as an xlsx workbook with one sheet per collection.
func WriteReport(w io.Writer, d catalogue.Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTopics); err != nil {
		return fmt.Errorf("generator: report: %w", err)
	}
	for _, name := range []string{sheetTests, sheetSources} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("generator: report: %w", err)
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("generator: report: %w", err)
	}

	topics := [][]any{{"Class", "Topic", "Title", "Folder", "Images", "Files"}}
	for _, cls := range d.Classes {
		for _, t := range d.Topics[cls] {
			topics = append(topics, []any{cls, t.Num, t.Label(), t.Folder, len(t.Images), strings.Join(t.Images, ", ")})
		}
	}

	tests := [][]any{{"Class", "Topic", "Label", "URL"}}
	for _, key := range sortedKeys(d.Tests) {
		for _, l := range d.Tests[key.raw] {
			tests = append(tests, []any{key.Class, key.Topic, l.Label, l.URL})
		}
	}

	sources := [][]any{{"Class", "Topic", "Title", "URL"}}
	for _, key := range sortedKeys(d.Sources) {
		for _, l := range d.Sources[key.raw] {
			sources = append(sources, []any{key.Class, key.Topic, l.Title, l.URL})
		}
	}

	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{sheetTopics, topics},
		{sheetTests, tests},
		{sheetSources, sources},
	} {
		if err := writeSheet(f, sheet.name, sheet.rows, header); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("generator: report: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("generator: report: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("generator: report %s: %w", sheet, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("generator: report %s: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

type linkKey struct {
	raw string
	catalogue.Key
}

// sortedKeys orders link keys by class, then topic number. Keys that do not parse
// are left out.
func sortedKeys[T any](m map[string][]T) []linkKey {
	keys := make([]linkKey, 0, len(m))
	for raw := range m {
		if key, err := catalogue.ParseKey(raw); err == nil {
			keys = append(keys, linkKey{raw: raw, Key: key})
		}
	}
	slices.SortFunc(keys, func(a, b linkKey) int {
		if c := compareClassIDs(a.Class, b.Class); c != 0 {
			return c
		}
		return a.Topic - b.Topic
	})
	return keys
}
