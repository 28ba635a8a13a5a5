/*
 * This file is part of dtorrent.
 *
 * dtorrent is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * dtorrent is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with dtorrent.  If not, see <http://www.gnu.org/licenses/>.
 */

// Package catalog keeps a MySQL index of parsed torrents keyed by info hash.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/moham96/dtorrent-parser/config"
	"github.com/moham96/dtorrent-parser/metainfo"

	"github.com/go-sql-driver/mysql"
)

var ErrNotFound = errors.New("catalog: torrent not found")

const schema = "CREATE TABLE IF NOT EXISTS torrents (" +
	"info_hash CHAR(40) NOT NULL PRIMARY KEY, " +
	"name VARCHAR(1024) NOT NULL, " +
	"length BIGINT NOT NULL, " +
	"piece_length BIGINT NOT NULL, " +
	"pieces INT NOT NULL, " +
	"files INT NOT NULL, " +
	"private TINYINT(1) NOT NULL DEFAULT 0, " +
	"created_at DATETIME NULL, " +
	"stored_at DATETIME NOT NULL" +
	") CHARACTER SET utf8mb4"

// Entry is the stored summary of one torrent.
type Entry struct {
	InfoHash    string     `json:"infoHash"`
	Name        string     `json:"name"`
	Length      int64      `json:"length"`
	PieceLength int64      `json:"pieceLength"`
	Pieces      int        `json:"pieces"`
	Files       int        `json:"files"`
	Private     bool       `json:"private"`
	CreatedAt   *time.Time `json:"creationDate,omitempty"`
}

type Catalog struct {
	db *sql.DB

	storeStmt *sql.Stmt
	getStmt   *sql.Stmt
	countStmt *sql.Stmt
}

var (
	deadlockWaitTime   = time.Second
	maxDeadlockRetries = 5
)

var defaultDsn = map[string]string{
	"username": "dtorrent",
	"password": "",
	"proto":    "tcp",
	"addr":     "127.0.0.1:3306",
	"database": "dtorrent",
}

// Enabled reports whether the catalog is switched on in config or through DB_DSN.
func Enabled() bool {
	enabled, _ := config.Section("catalog").GetBool("enabled", false)
	return enabled || os.Getenv("DB_DSN") != ""
}

// DSN builds the connection string. DB_DSN from the environment wins over the
// catalog section of the config file.
func DSN() (string, error) {
	var cfg *mysql.Config

	if env := os.Getenv("DB_DSN"); env != "" {
		parsed, err := mysql.ParseDSN(env)
		if err != nil {
			return "", err
		}

		cfg = parsed
	} else {
		catalogConfig := config.Section("catalog")

		cfg = mysql.NewConfig()
		cfg.User, _ = catalogConfig.Get("username", defaultDsn["username"])
		cfg.Passwd, _ = catalogConfig.Get("password", defaultDsn["password"])
		cfg.Net, _ = catalogConfig.Get("proto", defaultDsn["proto"])
		cfg.Addr, _ = catalogConfig.Get("addr", defaultDsn["addr"])
		cfg.DBName, _ = catalogConfig.Get("database", defaultDsn["database"])
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC

	return cfg.FormatDSN(), nil
}

func Open(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	catalogConfig := config.Section("catalog")

	pause, _ := catalogConfig.GetInt("deadlock_pause", 1)
	deadlockWaitTime = time.Duration(pause) * time.Second
	maxDeadlockRetries, _ = catalogConfig.GetInt("deadlock_retries", 5)

	c := &Catalog{db: db}

	if err = c.prepare(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	slog.Info("catalog ready")

	return c, nil
}

func (c *Catalog) prepare(ctx context.Context) (err error) {
	c.storeStmt, err = c.db.PrepareContext(ctx,
		"INSERT INTO torrents (info_hash, name, length, piece_length, pieces, files, private, created_at, stored_at) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE name = VALUES(name), length = VALUES(length), "+
			"piece_length = VALUES(piece_length), pieces = VALUES(pieces), files = VALUES(files), "+
			"private = VALUES(private), created_at = VALUES(created_at), stored_at = VALUES(stored_at)")
	if err != nil {
		return err
	}

	c.getStmt, err = c.db.PrepareContext(ctx,
		"SELECT info_hash, name, length, piece_length, pieces, files, private, created_at "+
			"FROM torrents WHERE info_hash = ?")
	if err != nil {
		return err
	}

	c.countStmt, err = c.db.PrepareContext(ctx, "SELECT COUNT(*) FROM torrents")

	return err
}

func (c *Catalog) Close() error {
	for _, stmt := range []*sql.Stmt{c.storeStmt, c.getStmt, c.countStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}

	return c.db.Close()
}

// Store inserts t or refreshes the row already stored under its info hash.
func (c *Catalog) Store(ctx context.Context, t *metainfo.Torrent) error {
	if t == nil {
		return metainfo.ErrInvalidArgument
	}

	private := t.Private != nil && *t.Private

	var createdAt sql.NullTime
	if t.CreationDate != nil {
		createdAt = sql.NullTime{Time: t.CreationDate.UTC(), Valid: true}
	}

	return perform(ctx, func() error {
		_, err := c.storeStmt.ExecContext(ctx,
			t.InfoHash(), t.Name(), t.Length(), t.PieceLength(), t.PieceCount(), len(t.Files()), private,
			createdAt, time.Now().UTC())

		return err
	})
}

func (c *Catalog) Get(ctx context.Context, infoHash string) (*Entry, error) {
	var (
		e         Entry
		createdAt sql.NullTime
	)

	err := c.getStmt.QueryRowContext(ctx, infoHash).Scan(
		&e.InfoHash, &e.Name, &e.Length, &e.PieceLength, &e.Pieces, &e.Files, &e.Private, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		created := createdAt.Time.UTC()
		e.CreatedAt = &created
	}

	return &e, nil
}

func (c *Catalog) Count(ctx context.Context) (count int64, err error) {
	err = c.countStmt.QueryRowContext(ctx).Scan(&count)
	return
}

// perform runs exec, retrying when MySQL reports a deadlock or lock wait timeout.
func perform(ctx context.Context, exec func() error) (err error) {
	for tries := 1; tries <= maxDeadlockRetries; tries++ {
		err = exec()

		var merr *mysql.MySQLError
		if !errors.As(err, &merr) || (merr.Number != 1213 && merr.Number != 1205) {
			if merr != nil {
				slog.Error("sql error", "number", merr.Number, "message", merr.Message)
			}

			return err
		}

		wait := deadlockWaitTime * time.Duration(tries)
		slog.Warn("deadlock found, retrying", "wait", wait, "try", tries, "max", maxDeadlockRetries)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	slog.Error("deadlocked too many times, giving up", "tries", maxDeadlockRetries)

	return err
}
