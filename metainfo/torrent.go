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

// Package metainfo models BitTorrent metainfo files: it validates and parses
// decoded dictionaries into a Torrent and serializes a Torrent back while
// keeping its info dictionary, and therefore its info hash, intact.
package metainfo

import (
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/moham96/dtorrent-parser/bencode"
)

const (
	HashSize  = 20
	PieceSize = 20
)

type File struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Length int64  `json:"length"`
	Offset int64  `json:"offset"`
}

// End is the offset one past the last byte of the file.
func (f File) End() int64 {
	return f.Offset + f.Length
}

// Node is a DHT bootstrap contact.
type Node struct {
	Host string
	Port int64
}

func (n Node) String() string {
	return net.JoinHostPort(n.Host, strconv.FormatInt(n.Port, 10))
}

// Torrent is a parsed metainfo file.
//
// The info dictionary, name and info hash are fixed when the Torrent is
// parsed. Announces, web seeds, files, pieces and nodes can be edited, but
// editing them never touches the info dictionary or the hash, and Length and
// LastPieceLength only follow file edits after Recompute is called.
type Torrent struct {
	info          bencode.Value
	name          string
	infoHash      string
	infoHashBytes [HashSize]byte

	length          int64
	pieceLength     int64
	lastPieceLength int64

	announces []string
	urlList   []string
	files     []File
	pieces    []string
	nodes     []Node

	// Optional fields, nil when absent from the source dictionary
	Private      *bool
	CreationDate *time.Time
	CreatedBy    *string
	Comment      *string
	Encoding     *string
}

func (t *Torrent) Info() bencode.Value {
	return t.info
}

func (t *Torrent) Name() string {
	return t.name
}

func (t *Torrent) InfoHash() string {
	return t.infoHash
}

func (t *Torrent) InfoHashBytes() []byte {
	return slices.Clone(t.infoHashBytes[:])
}

func (t *Torrent) Length() int64 {
	return t.length
}

func (t *Torrent) PieceLength() int64 {
	return t.pieceLength
}

func (t *Torrent) LastPieceLength() int64 {
	return t.lastPieceLength
}

func (t *Torrent) Announces() []string {
	return slices.Clone(t.announces)
}

func (t *Torrent) URLList() []string {
	return slices.Clone(t.urlList)
}

func (t *Torrent) Files() []File {
	return slices.Clone(t.files)
}

func (t *Torrent) Pieces() []string {
	return slices.Clone(t.pieces)
}

func (t *Torrent) PieceCount() int {
	return len(t.pieces)
}

func (t *Torrent) Nodes() []Node {
	return slices.Clone(t.nodes)
}

// AddPiece appends a hex encoded piece digest.
func (t *Torrent) AddPiece(digest string) {
	t.pieces = append(t.pieces, digest)
}

// RemovePiece drops the first piece whose hex digest equals digest.
func (t *Torrent) RemovePiece(digest string) bool {
	return removeFirst(&t.pieces, digest)
}

func (t *Torrent) AddAnnounce(uri string) bool {
	return addUnique(&t.announces, uri)
}

func (t *Torrent) RemoveAnnounce(uri string) bool {
	return removeFirst(&t.announces, uri)
}

func (t *Torrent) AddURL(uri string) bool {
	return addUnique(&t.urlList, uri)
}

func (t *Torrent) RemoveURL(uri string) bool {
	return removeFirst(&t.urlList, uri)
}

func (t *Torrent) AddFile(f File) {
	t.files = append(t.files, f)
}

// RemoveFile drops the first file with the given display path.
func (t *Torrent) RemoveFile(path string) bool {
	i := slices.IndexFunc(t.files, func(f File) bool { return f.Path == path })
	if i < 0 {
		return false
	}

	t.files = slices.Delete(t.files, i, i+1)

	return true
}

func (t *Torrent) AddNode(n Node) {
	t.nodes = append(t.nodes, n)
}

func (t *Torrent) RemoveNode(n Node) bool {
	return removeFirst(&t.nodes, n)
}

// Recompute re-derives Length, file offsets and LastPieceLength from the
// current file list. The info dictionary and info hash are left alone.
func (t *Torrent) Recompute() {
	var offset int64

	for i := range t.files {
		t.files[i].Offset = offset
		offset += t.files[i].Length
	}

	t.length = offset
	t.lastPieceLength = lastPieceLength(t.length, t.pieceLength)
}

// Clone returns a deep copy. The info dictionary is shared since it is immutable.
func (t *Torrent) Clone() *Torrent {
	c := *t
	c.announces = slices.Clone(t.announces)
	c.urlList = slices.Clone(t.urlList)
	c.files = slices.Clone(t.files)
	c.pieces = slices.Clone(t.pieces)
	c.nodes = slices.Clone(t.nodes)
	c.Private = clonePtr(t.Private)
	c.CreationDate = clonePtr(t.CreationDate)
	c.CreatedBy = clonePtr(t.CreatedBy)
	c.Comment = clonePtr(t.Comment)
	c.Encoding = clonePtr(t.Encoding)

	return &c
}

func lastPieceLength(length, pieceLength int64) int64 {
	if pieceLength <= 0 {
		return 0
	}

	// A zero-length torrent still reports one full piece
	if rem := length % pieceLength; rem != 0 {
		return rem
	}

	return pieceLength
}

func addUnique[T comparable](s *[]T, v T) bool {
	if slices.Contains(*s, v) {
		return false
	}

	*s = append(*s, v)

	return true
}

func removeFirst[T comparable](s *[]T, v T) bool {
	i := slices.Index(*s, v)
	if i < 0 {
		return false
	}

	*s = slices.Delete(*s, i, i+1)

	return true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
