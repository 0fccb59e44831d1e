package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

// SeedTopics writes the topic catalog, updating descriptions and keyword
// lists for names that already exist. Topics are read-only to the query path.
func SeedTopics(ctx context.Context, db *sql.DB, topics []corpus.Topic) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO topics (name, description, keywords_json)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description   = excluded.description,
			keywords_json = excluded.keywords_json
	`)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	defer stmt.Close()

	for _, t := range topics {
		keywords, err := json.Marshal(t.Keywords)
		if err != nil {
			return errors.NewInternal(err)
		}
		if _, err := stmt.ExecContext(ctx, t.Name, t.Description, string(keywords)); err != nil {
			return errors.NewStoreUnavailable(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}

// ListTopics returns the topic catalog ordered by name.
func ListTopics(ctx context.Context, db *sql.DB) ([]corpus.Topic, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, keywords_json FROM topics ORDER BY name ASC
	`)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var topics []corpus.Topic
	for rows.Next() {
		var (
			t            corpus.Topic
			keywordsJSON string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &keywordsJSON); err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		if keywordsJSON != "" {
			if err := json.Unmarshal([]byte(keywordsJSON), &t.Keywords); err != nil {
				return nil, errors.NewInternal(err)
			}
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	return topics, nil
}

// GetTopic retrieves a topic by name.
func GetTopic(ctx context.Context, db *sql.DB, name string) (*corpus.Topic, error) {
	var (
		t            corpus.Topic
		keywordsJSON string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, name, description, keywords_json FROM topics WHERE name = ?
	`, name).Scan(&t.ID, &t.Name, &t.Description, &keywordsJSON)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(name)
	}
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	if keywordsJSON != "" {
		if err := json.Unmarshal([]byte(keywordsJSON), &t.Keywords); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	return &t, nil
}
