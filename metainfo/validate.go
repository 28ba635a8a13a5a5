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
	"fmt"

	"github.com/moham96/dtorrent-parser/bencode"
)

// Validate checks that dict carries every field Parse depends on. Checks run in
// a fixed order and the first missing field is reported.
func Validate(dict bencode.Value) error {
	info, ok := dict.Get("info")
	if !ok || info.Kind() != bencode.KindDict {
		return &ValidationError{Field: "info"}
	}

	if !info.Has("name") && !info.Has("name.utf-8") {
		return &ValidationError{Field: "info.name"}
	}

	if pieceLength, ok := info.Get("piece length"); !ok || pieceLength.Kind() != bencode.KindInt {
		return &ValidationError{Field: "info.piece length"}
	}

	if pieces, ok := info.Get("pieces"); !ok || pieces.Kind() != bencode.KindBytes {
		return &ValidationError{Field: "info.pieces"}
	}

	if files, ok := info.Get("files"); ok {
		entries, isList := files.List()
		if !isList {
			return &ValidationError{Field: "info.files"}
		}

		for i, entry := range entries {
			if !entry.Has("path") && !entry.Has("path.utf-8") {
				return &ValidationError{Field: fmt.Sprintf("info.files[%d].path", i)}
			}
		}

		return nil
	}

	if length, ok := info.Get("length"); !ok || length.Kind() != bencode.KindInt {
		return &ValidationError{Field: "info.length"}
	}

	return nil
}
