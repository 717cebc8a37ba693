package catalogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type classRow struct {
	ID       string `db:"id"`
	Position int    `db:"position"`
}

type topicRow struct {
	ClassID string `db:"class_id"`
	Num     int    `db:"num"`
	Title   string `db:"title"`
	Folder  string `db:"folder"`
}

type imageRow struct {
	ClassID  string `db:"class_id"`
	TopicNum int    `db:"topic_num"`
	Position int    `db:"position"`
	FileName string `db:"file_name"`
}

type linkRow struct {
	ClassID  string `db:"class_id"`
	TopicNum int    `db:"topic_num"`
	Position int    `db:"position"`
	Text     string `db:"text"`
	URL      string `db:"url"`
}

// PublishedAt returns the time of the last Publish. ok is false when nothing has
// been published yet.
func PublishedAt(ctx context.Context, db *sqlx.DB) (at time.Time, ok bool, err error) {
	err = db.GetContext(ctx, &at, `SELECT published_at FROM catalogue_meta WHERE id`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("catalogue: read meta: %w", err)
	}
	return at, true, nil
}

// insertBatchSize keeps multi-row inserts well under the 65535 bind parameter limit.
const insertBatchSize = 1000

// LoadPostgres reads the published catalogue in one read-only snapshot and builds a Store.
func LoadPostgres(ctx context.Context, db *sqlx.DB) (*Store, error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("catalogue: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var classes []classRow
	if err := tx.SelectContext(ctx, &classes, `SELECT id, position FROM catalogue_classes ORDER BY position, id`); err != nil {
		return nil, fmt.Errorf("catalogue: select classes: %w", err)
	}
	var topics []topicRow
	if err := tx.SelectContext(ctx, &topics, `SELECT class_id, num, title, folder FROM catalogue_topics ORDER BY class_id, num`); err != nil {
		return nil, fmt.Errorf("catalogue: select topics: %w", err)
	}
	var images []imageRow
	if err := tx.SelectContext(ctx, &images, `SELECT class_id, topic_num, position, file_name FROM catalogue_images ORDER BY class_id, topic_num, position`); err != nil {
		return nil, fmt.Errorf("catalogue: select images: %w", err)
	}
	var tests []linkRow
	if err := tx.SelectContext(ctx, &tests, `SELECT class_id, topic_num, position, label AS text, url FROM catalogue_tests ORDER BY class_id, topic_num, position`); err != nil {
		return nil, fmt.Errorf("catalogue: select tests: %w", err)
	}
	var sources []linkRow
	if err := tx.SelectContext(ctx, &sources, `SELECT class_id, topic_num, position, title AS text, url FROM catalogue_sources ORDER BY class_id, topic_num, position`); err != nil {
		return nil, fmt.Errorf("catalogue: select sources: %w", err)
	}

	d := Data{
		Topics:  make(map[string][]Topic),
		Tests:   make(map[string][]TestLink),
		Sources: make(map[string][]SourceLink),
	}
	for _, c := range classes {
		d.Classes = append(d.Classes, c.ID)
	}
	files := make(map[Key][]string)
	for _, img := range images {
		k := Key{img.ClassID, img.TopicNum}
		files[k] = append(files[k], img.FileName)
	}
	for _, t := range topics {
		d.Topics[t.ClassID] = append(d.Topics[t.ClassID], Topic{
			Num:    t.Num,
			Title:  t.Title,
			Folder: t.Folder,
			Images: files[Key{t.ClassID, t.Num}],
		})
	}
	for _, l := range tests {
		k := Key{l.ClassID, l.TopicNum}.String()
		d.Tests[k] = append(d.Tests[k], TestLink{Label: l.Text, URL: l.URL})
	}
	for _, l := range sources {
		k := Key{l.ClassID, l.TopicNum}.String()
		d.Sources[k] = append(d.Sources[k], SourceLink{Title: l.Text, URL: l.URL})
	}
	return New(d)
}

// Publish replaces the stored catalogue with d in a single transaction.
// d is validated with New first; invalid data never reaches the database.
func Publish(ctx context.Context, db *sqlx.DB, d Data) (Stats, error) {
	store, err := New(d)
	if err != nil {
		return Stats{}, err
	}
	d = store.Data()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("catalogue: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"catalogue_tests", "catalogue_sources", "catalogue_classes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Stats{}, fmt.Errorf("catalogue: clear %s: %w", table, err)
		}
	}

	var (
		classes []classRow
		topics  []topicRow
		images  []imageRow
		tests   []linkRow
		sources []linkRow
	)
	for i, id := range d.Classes {
		classes = append(classes, classRow{ID: id, Position: i})
		for _, t := range d.Topics[id] {
			topics = append(topics, topicRow{ClassID: id, Num: t.Num, Title: t.Title, Folder: t.Folder})
			for pos, file := range t.Images {
				images = append(images, imageRow{ClassID: id, TopicNum: t.Num, Position: pos, FileName: file})
			}
		}
	}
	for raw, links := range d.Tests {
		k, _ := ParseKey(raw)
		for pos, l := range links {
			tests = append(tests, linkRow{ClassID: k.Class, TopicNum: k.Topic, Position: pos, Text: l.Label, URL: l.URL})
		}
	}
	for raw, links := range d.Sources {
		k, _ := ParseKey(raw)
		for pos, l := range links {
			sources = append(sources, linkRow{ClassID: k.Class, TopicNum: k.Topic, Position: pos, Text: l.Title, URL: l.URL})
		}
	}

	steps := []struct {
		name   string
		insert func() error
	}{
		{"classes", func() error {
			return insertBatches(ctx, tx, `INSERT INTO catalogue_classes (id, position) VALUES (:id, :position)`, classes)
		}},
		{"topics", func() error {
			return insertBatches(ctx, tx, `INSERT INTO catalogue_topics (class_id, num, title, folder) VALUES (:class_id, :num, :title, :folder)`, topics)
		}},
		{"images", func() error {
			return insertBatches(ctx, tx, `INSERT INTO catalogue_images (class_id, topic_num, position, file_name) VALUES (:class_id, :topic_num, :position, :file_name)`, images)
		}},
		{"tests", func() error {
			return insertBatches(ctx, tx, `INSERT INTO catalogue_tests (class_id, topic_num, position, label, url) VALUES (:class_id, :topic_num, :position, :text, :url)`, tests)
		}},
		{"sources", func() error {
			return insertBatches(ctx, tx, `INSERT INTO catalogue_sources (class_id, topic_num, position, title, url) VALUES (:class_id, :topic_num, :position, :text, :url)`, sources)
		}},
	}
	for _, step := range steps {
		if err := step.insert(); err != nil {
			return Stats{}, fmt.Errorf("catalogue: insert %s: %w", step.name, err)
		}
	}

	stats := store.Stats()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalogue_meta (id, published_at, classes, topics, images)
		VALUES (TRUE, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			published_at = EXCLUDED.published_at,
			classes = EXCLUDED.classes,
			topics = EXCLUDED.topics,
			images = EXCLUDED.images`,
		time.Now().UTC(), stats.Classes, stats.Topics, stats.Images,
	); err != nil {
		return Stats{}, fmt.Errorf("catalogue: write meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("catalogue: commit: %w", err)
	}
	return stats, nil
}

func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
