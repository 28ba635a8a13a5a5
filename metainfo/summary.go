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
	"time"

	"github.com/jinzhu/copier"
)

// Summary is the JSON view of a Torrent.
type Summary struct {
	InfoHash        string   `json:"infoHash"`
	Name            string   `json:"name"`
	Length          int64    `json:"length"`
	PieceLength     int64    `json:"pieceLength"`
	LastPieceLength int64    `json:"lastPieceLength"`
	PieceCount      int      `json:"pieces"`
	Files           []File   `json:"files"`
	Announces       []string `json:"announces"`
	URLList         []string `json:"urlList"`

	Nodes        []string `json:"nodes" copier:"-"`
	Private      bool     `json:"private" copier:"-"`
	CreationDate string   `json:"creationDate,omitempty" copier:"-"`
	CreatedBy    string   `json:"createdBy,omitempty" copier:"-"`
	Comment      string   `json:"comment,omitempty" copier:"-"`
	Encoding     string   `json:"encoding,omitempty" copier:"-"`
}

func Summarize(t *Torrent) (Summary, error) {
	var s Summary

	if err := copier.Copy(&s, t); err != nil {
		return Summary{}, err
	}

	s.Nodes = make([]string, len(t.nodes))
	for i, n := range t.nodes {
		s.Nodes[i] = n.String()
	}

	if s.Announces == nil {
		s.Announces = []string{}
	}

	if s.URLList == nil {
		s.URLList = []string{}
	}

	if t.Private != nil {
		s.Private = *t.Private
	}

	if t.CreationDate != nil {
		s.CreationDate = t.CreationDate.Format(time.RFC3339)
	}

	s.CreatedBy = deref(t.CreatedBy)
	s.Comment = deref(t.Comment)
	s.Encoding = deref(t.Encoding)

	return s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
