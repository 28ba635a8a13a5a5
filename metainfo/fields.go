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
	"log/slog"
	"net/url"
	"sync/atomic"
	"unicode/utf8"

	"github.com/moham96/dtorrent-parser/bencode"

	"golang.org/x/text/encoding/charmap"
)

// Kinds of sub-items the parser discards instead of failing
const (
	DropAnnounce    = "announce"
	DropURLList     = "url-list"
	DropNode        = "node"
	DropPathSegment = "path-segment"
	DropFileLength  = "file-length"
	DropScalar      = "scalar"
)

// DropFunc is told about every malformed sub-item skipped during parsing.
type DropFunc func(kind string)

var dropHook atomic.Pointer[DropFunc]

// SetDropHook installs fn as the receiver of drop notifications; nil removes it.
func SetDropHook(fn DropFunc) {
	if fn == nil {
		dropHook.Store(nil)
		return
	}

	dropHook.Store(&fn)
}

func dropped(kind, reason string, args ...any) {
	slog.Debug("dropped malformed entry", append([]any{"kind", kind, "reason", reason}, args...)...)

	if fn := dropHook.Load(); fn != nil {
		(*fn)(kind)
	}
}

// decodeText turns a byte string into text. Invalid UTF-8 is reinterpreted as
// ISO-8859-1 so every byte maps to exactly one rune.
func decodeText(v bencode.Value) (string, bool) {
	s, ok := v.Str()
	if !ok {
		return "", false
	}

	if utf8.ValidString(s) {
		return s, true
	}

	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return "", false
	}

	return out, true
}

// preferredText decodes the first of keys present in dict as text.
func preferredText(dict bencode.Value, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := dict.Get(key); ok {
			if s, ok := decodeText(v); ok {
				return s, true
			}
		}
	}

	return "", false
}

func optionalText(dict bencode.Value, key string) *string {
	v, ok := dict.Get(key)
	if !ok {
		return nil
	}

	s, ok := decodeText(v)
	if !ok {
		dropped(DropScalar, "not a byte string", "key", key)
		return nil
	}

	return &s
}

func optionalInt(dict bencode.Value, key string) (int64, bool) {
	v, ok := dict.Get(key)
	if !ok {
		return 0, false
	}

	i, ok := v.Int()
	if !ok {
		dropped(DropScalar, "not an integer", "key", key)
	}

	return i, ok
}

// parseURI decodes v and keeps it when it parses as a URI reference.
func parseURI(v bencode.Value) (string, bool) {
	s, ok := decodeText(v)
	if !ok {
		return "", false
	}

	if _, err := url.Parse(s); err != nil {
		return "", false
	}

	return s, true
}

// uriEntries flattens an announce-list or url-list into URI strings. Entries
// may be byte strings or lists of byte strings (announce tiers).
func uriEntries(v bencode.Value, kind string) []string {
	var out []string

	if v.Kind() == bencode.KindBytes {
		v = bencode.List(v)
	}

	entries, ok := v.List()
	if !ok {
		dropped(kind, "not a list")
		return nil
	}

	for _, entry := range entries {
		candidates := []bencode.Value{entry}
		if tier, isTier := entry.List(); isTier {
			candidates = tier
		}

		for _, c := range candidates {
			if uri, ok := parseURI(c); ok {
				out = append(out, uri)
			} else {
				dropped(kind, "not a valid uri")
			}
		}
	}

	return out
}

// pathSegment is one component of a file path; null segments have no text.
type pathSegment struct {
	text string
	null bool
}

// pathSegments reads path.utf-8, falling back to path, from a files entry.
func pathSegments(entry bencode.Value) []pathSegment {
	var raw []bencode.Value

	for _, key := range []string{"path.utf-8", "path"} {
		if v, ok := entry.Get(key); ok {
			if list, isList := v.List(); isList {
				raw = list
				break
			}

			dropped(DropPathSegment, "path is not a list", "key", key)
		}
	}

	segments := make([]pathSegment, len(raw))
	for i, v := range raw {
		text, ok := decodeText(v)
		if !ok {
			dropped(DropPathSegment, "segment is not a byte string")
			segments[i] = pathSegment{null: true}

			continue
		}

		segments[i] = pathSegment{text: text}
	}

	return segments
}

func parseNode(v bencode.Value) (Node, bool) {
	pair, ok := v.List()
	if !ok || len(pair) != 2 {
		return Node{}, false
	}

	host, ok := decodeText(pair[0])
	if !ok {
		return Node{}, false
	}

	port, ok := pair[1].Int()
	if !ok {
		return Node{}, false
	}

	return Node{Host: host, Port: port}, true
}
