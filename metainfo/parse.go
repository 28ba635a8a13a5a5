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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moham96/dtorrent-parser/bencode"
)

// ParseBytes decodes a bencoded metainfo file and parses it.
func ParseBytes(data []byte) (*Torrent, error) {
	dict, err := bencode.Decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return Parse(dict)
}

// Parse validates dict and builds a Torrent from it. Nothing is returned on
// failure; malformed optional entries are skipped instead.
func Parse(dict bencode.Value) (*Torrent, error) {
	if dict.Kind() != bencode.KindDict {
		return nil, fmt.Errorf("%w: metainfo must be a dictionary, got %s", ErrInvalidArgument, dict.Kind())
	}

	if err := Validate(dict); err != nil {
		return nil, err
	}

	info, _ := dict.Get("info")

	t := &Torrent{info: info}
	t.name, _ = preferredText(info, "name.utf-8", "name")

	encoded, err := bencode.Encode(info)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	t.infoHashBytes = sha1.Sum(encoded) //nolint:gosec
	t.infoHash = hex.EncodeToString(t.infoHashBytes[:])

	parseScalars(t, dict, info)
	parseAnnounces(t, dict)
	parseURLList(t, dict)
	parseFiles(t, info)

	pieceLength, _ := info.Get("piece length")
	t.pieceLength, _ = pieceLength.Int()
	t.lastPieceLength = lastPieceLength(t.length, t.pieceLength)

	parsePieces(t, info)
	parseNodes(t, dict)

	return t, nil
}

func parseScalars(t *Torrent, dict, info bencode.Value) {
	t.Encoding = optionalText(dict, "encoding")
	t.CreatedBy = optionalText(dict, "created by")
	t.Comment = optionalText(dict, "comment")

	// private belongs in info but some writers put it at the top level
	private, ok := optionalInt(info, "private")
	if !ok {
		private, ok = optionalInt(dict, "private")
	}

	if ok {
		isPrivate := private == 1
		t.Private = &isPrivate
	}

	if seconds, ok := optionalInt(dict, "creation date"); ok {
		created := time.Unix(seconds, 0).UTC()
		t.CreationDate = &created
	}
}

func parseAnnounces(t *Torrent, dict bencode.Value) {
	if list, ok := dict.Get("announce-list"); ok {
		for _, uri := range uriEntries(list, DropAnnounce) {
			t.AddAnnounce(uri)
		}
	}

	if announce, ok := dict.Get("announce"); ok {
		if uri, ok := parseURI(announce); ok {
			t.AddAnnounce(uri)
		} else {
			dropped(DropAnnounce, "not a valid uri")
		}
	}
}

func parseURLList(t *Torrent, dict bencode.Value) {
	list, ok := dict.Get("url-list")
	if !ok {
		return
	}

	for _, uri := range uriEntries(list, DropURLList) {
		t.AddURL(uri)
	}
}

func parseFiles(t *Torrent, info bencode.Value) {
	filesValue, ok := info.Get("files")
	if !ok {
		lengthValue, _ := info.Get("length")
		length, _ := lengthValue.Int()
		t.files = []File{{Name: t.name, Path: t.name, Length: length}}
		t.length = length

		return
	}

	entries, _ := filesValue.List()
	t.files = make([]File, 0, len(entries))

	separator := string(os.PathSeparator)

	for _, entry := range entries {
		segments := pathSegments(entry)

		components := make([]string, 0, len(segments)+1)
		components = append(components, t.name)
		name := t.name

		for _, segment := range segments {
			components = append(components, segment.text)
		}

		for i := len(segments) - 1; i >= 0; i-- {
			if !segments[i].null {
				name = segments[i].text
				break
			}
		}

		length, _ := optionalInt(entry, "length")
		if length < 0 {
			dropped(DropFileLength, "negative length", "path", strings.Join(components, separator))
			length = 0
		}

		t.files = append(t.files, File{
			Name:   name,
			Path:   strings.Join(components, separator),
			Length: length,
			Offset: t.length,
		})
		t.length += length
	}
}

func parsePieces(t *Torrent, info bencode.Value) {
	raw, _ := info.Get("pieces")
	buf, _ := raw.Str()

	t.pieces = make([]string, 0, (len(buf)+PieceSize-1)/PieceSize)

	// A trailing short chunk is kept as is
	for start := 0; start < len(buf); start += PieceSize {
		end := min(start+PieceSize, len(buf))
		t.pieces = append(t.pieces, hex.EncodeToString([]byte(buf[start:end])))
	}
}

func parseNodes(t *Torrent, dict bencode.Value) {
	nodesValue, ok := dict.Get("nodes")
	if !ok {
		return
	}

	entries, ok := nodesValue.List()
	if !ok {
		dropped(DropNode, "not a list")
		return
	}

	for _, entry := range entries {
		node, ok := parseNode(entry)
		if !ok {
			dropped(DropNode, "expected [host, port]")
			continue
		}

		t.nodes = append(t.nodes, node)
	}
}
