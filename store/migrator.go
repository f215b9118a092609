package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Fresh databases get migration/{driver}/LATEST.sql. Demo mode on SQLite also
// loads seed/{driver}/*.sql so the assistant has a catalog to search.

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// LatestSchemaFileName is the full schema applied to new databases.
	LatestSchemaFileName = "LATEST.sql"

	modeDemo = "demo"
)

// Migrate applies the latest schema when the database is empty and seeds it in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	if err := s.applyFiles(ctx, migrationFS, []string{filePath}); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	slog.Info("database initialized with latest schema", slog.String("file", filePath))

	if s.profile.Mode == modeDemo {
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) getSeedBasePath() string {
	return fmt.Sprintf("seed/%s/", s.profile.Driver)
}

// seed is only supported for SQLite; other databases carry real catalog data.
func (s *Store) seed(ctx context.Context) error {
	if s.profile.Driver != "sqlite" {
		slog.Warn("seed is only supported for SQLite, skipping", "driver", s.profile.Driver)
		return nil
	}

	filenames, err := fs.Glob(seedFS, s.getSeedBasePath()+"*.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filenames)
	return s.applyFiles(ctx, seedFS, filenames)
}

// applyFiles executes the files in one transaction.
func (s *Store) applyFiles(ctx context.Context, fsys fs.ReadFileFS, filenames []string) error {
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	for _, filename := range filenames {
		bytes, err := fsys.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", filename)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute %s", filename)
		}
	}
	return tx.Commit()
}

// execute runs stmt inside tx. PostgreSQL needs one statement per ExecContext call.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	if s.profile.Driver != "postgres" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to execute statement")
		}
		return nil
	}

	for i, part := range splitSQL(stmt) {
		if _, err := tx.ExecContext(ctx, part); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, part)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons outside quotes, dollar-quoted bodies and comments.
func splitSQL(script string) []string {
	var (
		statements []string
		current    strings.Builder
		dollarTag  string
		inQuote    bool
		inBlock    bool
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		rest := script[i:]

		switch {
		case inBlock:
			if strings.HasPrefix(rest, "*/") {
				inBlock = false
				i++
			}
			continue
		case dollarTag != "":
			if strings.HasPrefix(rest, dollarTag) {
				current.WriteString(dollarTag)
				i += len(dollarTag) - 1
				dollarTag = ""
				continue
			}
		case inQuote:
			if ch == '\'' {
				inQuote = false
			}
		case strings.HasPrefix(rest, "--"):
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
				i += nl
				current.WriteByte('\n')
			} else {
				i = len(script)
			}
			continue
		case strings.HasPrefix(rest, "/*"):
			inBlock = true
			i++
			continue
		case ch == '\'':
			inQuote = true
		case ch == '$':
			if end := strings.IndexByte(rest[1:], '$'); end >= 0 && isDollarTag(rest[1:end+1]) {
				dollarTag = rest[:end+2]
				current.WriteString(dollarTag)
				i += len(dollarTag) - 1
				continue
			}
		case ch == ';':
			current.WriteByte(ch)
			flush()
			continue
		}
		current.WriteByte(ch)
	}
	flush()
	return statements
}

func isDollarTag(tag string) bool {
	for _, r := range tag {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
