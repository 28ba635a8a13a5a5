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

// Serialize rebuilds the top-level dictionary of t around its original info
// dictionary. Typed fields derived from info are never written back into it.
// Besides trackers, web seeds and the optional scalars, DHT nodes are emitted
// as [host, port] lists so a parse of the output yields the same nodes.
func Serialize(t *Torrent) bencode.Value {
	entries := map[string]bencode.Value{
		"info": t.info,
	}

	switch len(t.announces) {
	case 0:
	case 1:
		entries["announce"] = bencode.String(t.announces[0])
	default:
		// One tracker per tier
		tiers := make([]bencode.Value, len(t.announces))
		for i, uri := range t.announces {
			tiers[i] = bencode.List(bencode.String(uri))
		}

		entries["announce-list"] = bencode.List(tiers...)
	}

	if len(t.urlList) > 0 {
		seeds := make([]bencode.Value, len(t.urlList))
		for i, uri := range t.urlList {
			seeds[i] = bencode.String(uri)
		}

		entries["url-list"] = bencode.List(seeds...)
	}

	// nodes go beyond the classic output shape, written so they round-trip
	if len(t.nodes) > 0 {
		nodes := make([]bencode.Value, len(t.nodes))
		for i, n := range t.nodes {
			nodes[i] = bencode.List(bencode.String(n.Host), bencode.Int(n.Port))
		}

		entries["nodes"] = bencode.List(nodes...)
	}

	if t.Private != nil {
		if *t.Private {
			entries["private"] = bencode.Int(1)
		} else {
			entries["private"] = bencode.Int(0)
		}
	}

	if t.CreationDate != nil {
		entries["creation date"] = bencode.Int(t.CreationDate.Unix())
	}

	if t.CreatedBy != nil {
		entries["created by"] = bencode.String(*t.CreatedBy)
	}

	if t.Comment != nil {
		entries["comment"] = bencode.String(*t.Comment)
	}

	// encoding is never written back, text is always emitted as UTF-8

	return bencode.Dict(entries)
}

// ToBytes returns the bencoded form of t.
func (t *Torrent) ToBytes() ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil torrent", ErrInvalidArgument)
	}

	return bencode.Encode(Serialize(t))
}
