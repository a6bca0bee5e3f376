// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/crew":   "pgx5://u:p@db:5432/crew",
		"postgresql://u:p@db:5432/crew": "pgx5://u:p@db:5432/crew",
		"pgx5://u:p@db:5432/crew":       "pgx5://u:p@db:5432/crew",
		"host=db user=u":                "host=db user=u",
	}

	for input, want := range tests {
		assert.Equal(t, want, convertToPgx5DSN(input), input)
	}
}

func TestSourceFor(t *testing.T) {
	got, err := sourceFor("data/migrations")
	assert.NoError(t, err)
	assert.Equal(t, "file://data/migrations", got)

	got, err = sourceFor("file:///srv/crewdesk/migrations")
	assert.NoError(t, err)
	assert.Equal(t, "file:///srv/crewdesk/migrations", got)

	for _, empty := range []string{"", "  ", "file://"} {
		_, err := sourceFor(empty)
		assert.EqualError(t, err, "migration_path_empty", empty)
	}
}

func TestRunUp_RejectsEmptyPath(t *testing.T) {
	err := RunUp("postgres://u:p@db:5432/crew", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.EqualError(t, err, "migration_path_empty")
}
