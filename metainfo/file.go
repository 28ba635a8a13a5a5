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

package metainfo

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ReadFile reads and parses the metainfo file at path.
func ReadFile(path string) (*Torrent, error) {
	if path == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read %s", path)
	}

	return ParseBytes(data)
}

// WriteFile serializes t to path. An existing file is only replaced when force
// is set, otherwise ErrExists is returned. Missing parent directories are created.
func WriteFile(path string, t *Torrent, force bool) error {
	if path == "" {
		return errors.Wrap(ErrInvalidArgument, "empty path")
	}

	data, err := t.ToBytes()
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "couldn't create parent directories of %s", path)
	}

	if force {
		return replaceFile(path, data)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return errors.Wrap(ErrExists, path)
	} else if err != nil {
		return errors.Wrapf(err, "couldn't open %s for writing", path)
	}

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return errors.Wrapf(err, "couldn't write %s", path)
	}

	return errors.Wrapf(f.Close(), "couldn't close %s", path)
}

// replaceFile writes data to a temporary file next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "couldn't create temporary file for %s", path)
	}

	tmpName := tmp.Name()

	if err = func() error {
		//goland:noinspection GoUnhandledErrorResult
		defer tmp.Close()

		if err := tmp.Chmod(0644); err != nil {
			return err
		}

		if _, err := tmp.Write(data); err != nil {
			return err
		}

		return tmp.Sync()
	}(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "couldn't write %s", tmpName)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "couldn't replace %s", path)
	}

	slog.Debug("replaced torrent file", "path", path, "size", len(data))

	return nil
}
