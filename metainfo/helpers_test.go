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
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"testing"

	"github.com/moham96/dtorrent-parser/bencode"

	zeebo "github.com/zeebo/bencode"
)

func zeroPieces(n int) bencode.Value {
	return bencode.Bytes(make([]byte, n))
}

func singleFileInfo() map[string]bencode.Value {
	return map[string]bencode.Value{
		"name":         bencode.String("a.txt"),
		"piece length": bencode.Int(16384),
		"pieces":       zeroPieces(20),
		"length":       bencode.Int(1000),
	}
}

func multiFileInfo() map[string]bencode.Value {
	return map[string]bencode.Value{
		"name":         bencode.String("root"),
		"piece length": bencode.Int(256),
		"pieces":       zeroPieces(40),
		"files": bencode.List(
			bencode.Dict(map[string]bencode.Value{
				"path":   bencode.List(bencode.String("d"), bencode.String("f1")),
				"length": bencode.Int(100),
			}),
			bencode.Dict(map[string]bencode.Value{
				"path":   bencode.List(bencode.String("f2")),
				"length": bencode.Int(200),
			}),
		),
	}
}

func withInfo(info map[string]bencode.Value, top map[string]bencode.Value) bencode.Value {
	entries := map[string]bencode.Value{"info": bencode.Dict(info)}
	for k, v := range top {
		entries[k] = v
	}

	return bencode.Dict(entries)
}

func encode(t *testing.T, v bencode.Value) []byte {
	t.Helper()

	data, err := bencode.Encode(v)
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	return data
}

func mustParse(t *testing.T, v bencode.Value) *Torrent {
	t.Helper()

	torrent, err := ParseBytes(encode(t, v))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}

	return torrent
}

// referenceInfoHash hashes info with an independent encoder.
func referenceInfoHash(t *testing.T, info map[string]bencode.Value) string {
	t.Helper()

	raw, err := zeebo.EncodeBytes(bencode.Dict(info).Native())
	if err != nil {
		t.Fatalf("Reference encoder failed: %v", err)
	}

	sum := sha1.Sum(raw) //nolint:gosec

	return hex.EncodeToString(sum[:])
}
