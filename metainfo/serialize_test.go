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
	"bytes"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/moham96/dtorrent-parser/bencode"

	anacrolix "github.com/anacrolix/torrent/metainfo"
	"github.com/google/go-cmp/cmp"
	jackpal "github.com/jackpal/bencode-go"
)

func decodeReference(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()

	raw, err := jackpal.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Reference decoder rejected serialized output: %v", err)
	}

	dict, ok := raw.(map[string]interface{})
	if !ok {
		t.Fatalf("Serialized output is not a dictionary: %T", raw)
	}

	return dict
}

func TestRoundTrip(t *testing.T) {
	fixtures := map[string]bencode.Value{
		"single": withInfo(singleFileInfo(), map[string]bencode.Value{
			"announce": bencode.String("http://a.example/announce"),
		}),
		"multi": withInfo(multiFileInfo(), map[string]bencode.Value{
			"announce-list": bencode.List(
				bencode.List(bencode.String("http://a.example/announce"), bencode.String("http://b.example/announce")),
				bencode.List(bencode.String("udp://c.example:6969")),
			),
			"encoding": bencode.String("UTF-8"),
		}),
		"bare": withInfo(singleFileInfo(), nil),
	}

	for name, fixture := range fixtures {
		t.Run(name, func(t *testing.T) {
			original := mustParse(t, fixture)

			out, err := original.ToBytes()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			reparsed, err := ParseBytes(out)
			if err != nil {
				t.Fatalf("Failed to parse serialized output: %v", err)
			}

			if reparsed.InfoHash() != original.InfoHash() || reparsed.Name() != original.Name() ||
				reparsed.Length() != original.Length() || reparsed.PieceLength() != original.PieceLength() {
				t.Fatalf("Round trip changed identity: %s/%s %s/%s %d/%d %d/%d",
					original.InfoHash(), reparsed.InfoHash(), original.Name(), reparsed.Name(),
					original.Length(), reparsed.Length(), original.PieceLength(), reparsed.PieceLength())
			}

			expectedAnnounces, gotAnnounces := original.Announces(), reparsed.Announces()
			slices.Sort(expectedAnnounces)
			slices.Sort(gotAnnounces)

			if diff := cmp.Diff(expectedAnnounces, gotAnnounces); diff != "" {
				t.Fatalf("Announces changed across round trip (-expected +got):\n%s", diff)
			}

			if reparsed.Encoding != nil {
				t.Fatalf("encoding must not survive serialization")
			}

			mi, err := anacrolix.Load(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("Reference parser rejected serialized output: %v", err)
			}

			if mi.HashInfoBytes().HexString() != original.InfoHash() {
				t.Fatalf("Reference info hash %s differs from %s", mi.HashInfoBytes().HexString(), original.InfoHash())
			}

			info, err := mi.UnmarshalInfo()
			if err != nil {
				t.Fatalf("Reference parser rejected info: %v", err)
			}

			if info.Name != original.Name() || info.TotalLength() != original.Length() {
				t.Fatalf("Reference parser read name=%s length=%d", info.Name, info.TotalLength())
			}
		})
	}
}

func TestSerializeAnnounceForms(t *testing.T) {
	torrent := mustParse(t, withInfo(singleFileInfo(), nil))

	dict := decodeReference(t, mustBytes(t, torrent))
	if _, ok := dict["announce"]; ok {
		t.Fatalf("announce must be omitted without trackers")
	}

	if _, ok := dict["announce-list"]; ok {
		t.Fatalf("announce-list must be omitted without trackers")
	}

	torrent.AddAnnounce("http://a.example/announce")

	dict = decodeReference(t, mustBytes(t, torrent))
	if dict["announce"] != "http://a.example/announce" {
		t.Fatalf("Expected single announce, got %v", dict["announce"])
	}

	if _, ok := dict["announce-list"]; ok {
		t.Fatalf("announce-list must be omitted with a single tracker")
	}

	torrent.AddAnnounce("udp://b.example:80")

	dict = decodeReference(t, mustBytes(t, torrent))
	if _, ok := dict["announce"]; ok {
		t.Fatalf("announce must be omitted with several trackers")
	}

	expected := []interface{}{
		[]interface{}{"http://a.example/announce"},
		[]interface{}{"udp://b.example:80"},
	}
	if diff := cmp.Diff(expected, dict["announce-list"]); diff != "" {
		t.Fatalf("announce-list mismatch (-expected +got):\n%s", diff)
	}
}

func TestSerializeOptionalFields(t *testing.T) {
	torrent := mustParse(t, withInfo(singleFileInfo(), map[string]bencode.Value{
		"encoding": bencode.String("UTF-8"),
		"url-list": bencode.List(bencode.String("https://seed.example/")),
		"nodes":    bencode.List(bencode.List(bencode.String("router.example"), bencode.Int(6881))),
	}))

	dict := decodeReference(t, mustBytes(t, torrent))
	for _, key := range []string{"encoding", "private", "creation date", "created by", "comment"} {
		if _, ok := dict[key]; ok {
			t.Fatalf("Unexpected key %q in output", key)
		}
	}

	if diff := cmp.Diff([]interface{}{"https://seed.example/"}, dict["url-list"]); diff != "" {
		t.Fatalf("url-list mismatch (-expected +got):\n%s", diff)
	}

	if diff := cmp.Diff([]interface{}{[]interface{}{"router.example", int64(6881)}}, dict["nodes"]); diff != "" {
		t.Fatalf("nodes mismatch (-expected +got):\n%s", diff)
	}

	reparsed, err := ParseBytes(mustBytes(t, torrent))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if diff := cmp.Diff(torrent.Nodes(), reparsed.Nodes()); diff != "" {
		t.Fatalf("Nodes changed over a round trip (-before +after):\n%s", diff)
	}

	private := false
	created := time.Unix(1700000000, 999_000_000).UTC()
	createdBy, comment := "dtorrent", "hello"

	torrent.Private = &private
	torrent.CreationDate = &created
	torrent.CreatedBy = &createdBy
	torrent.Comment = &comment

	dict = decodeReference(t, mustBytes(t, torrent))

	expected := map[string]interface{}{
		"private":       int64(0),
		"creation date": int64(1700000000),
		"created by":    "dtorrent",
		"comment":       "hello",
	}
	for key, value := range expected {
		if diff := cmp.Diff(value, dict[key]); diff != "" {
			t.Fatalf("%s mismatch (-expected +got):\n%s", key, diff)
		}
	}
}

func TestSerializeKeepsOriginalInfo(t *testing.T) {
	torrent := mustParse(t, withInfo(multiFileInfo(), nil))
	hash := torrent.InfoHash()

	originalInfo, err := bencode.Encode(torrent.Info())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	torrent.AddFile(File{Name: "extra", Path: "root/extra", Length: 5})
	torrent.RemovePiece(torrent.Pieces()[0])
	torrent.Recompute()

	reparsed, err := ParseBytes(mustBytes(t, torrent))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	serializedInfo, err := bencode.Encode(reparsed.Info())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !bytes.Equal(originalInfo, serializedInfo) {
		t.Fatalf("Info dictionary changed after mutation")
	}

	if reparsed.InfoHash() != hash || torrent.InfoHash() != hash {
		t.Fatalf("Info hash changed after mutation")
	}

	if len(reparsed.Files()) != 2 || len(reparsed.Pieces()) != 2 {
		t.Fatalf("Typed edits must not leak into info")
	}
}

func TestToBytesNil(t *testing.T) {
	var torrent *Torrent

	if _, err := torrent.ToBytes(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected invalid argument error, got %v", err)
	}
}

func mustBytes(t *testing.T, torrent *Torrent) []byte {
	t.Helper()

	out, err := torrent.ToBytes()
	if err != nil {
		t.Fatalf("Unexpected serialization error: %v", err)
	}

	return out
}
