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
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/moham96/dtorrent-parser/bencode"

	"github.com/google/go-cmp/cmp"
)

func TestSummarize(t *testing.T) {
	info := multiFileInfo()
	info["private"] = bencode.Int(1)

	torrent := mustParse(t, withInfo(info, map[string]bencode.Value{
		"announce":      bencode.String("http://a.example/announce"),
		"creation date": bencode.Int(0),
		"comment":       bencode.String("hi"),
		"nodes":         bencode.List(bencode.List(bencode.String("1.2.3.4"), bencode.Int(6881))),
	}))

	summary, err := Summarize(torrent)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := Summary{
		InfoHash:        torrent.InfoHash(),
		Name:            "root",
		Length:          300,
		PieceLength:     256,
		LastPieceLength: 44,
		PieceCount:      2,
		Files: []File{
			{Name: "f1", Path: filepath.Join("root", "d", "f1"), Length: 100, Offset: 0},
			{Name: "f2", Path: filepath.Join("root", "f2"), Length: 200, Offset: 100},
		},
		Announces:    []string{"http://a.example/announce"},
		URLList:      []string{},
		Nodes:        []string{"1.2.3.4:6881"},
		Private:      true,
		CreationDate: "1970-01-01T00:00:00Z",
		Comment:      "hi",
	}

	if diff := cmp.Diff(expected, summary); diff != "" {
		t.Fatalf("Summary mismatch (-expected +got):\n%s", diff)
	}
}

func TestSummaryJSON(t *testing.T) {
	summary, err := Summarize(mustParse(t, withInfo(singleFileInfo(), nil)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err = json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, key := range []string{"infoHash", "name", "length", "pieceLength", "lastPieceLength", "pieces", "files",
		"announces", "urlList", "nodes", "private"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("Summary JSON lacks %q: %s", key, out)
		}
	}

	for _, key := range []string{"creationDate", "createdBy", "comment", "encoding"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("Summary JSON has unset optional %q: %s", key, out)
		}
	}
}
