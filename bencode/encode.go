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

package bencode

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/moham96/dtorrent-parser/util"
)

var (
	ErrUnsupportedType = errors.New("bencode: unsupported type")
	ErrInvalidValue    = errors.New("bencode: invalid value")
)

// Scratch buffers for encoding; info dictionaries are rarely larger than this
var bufferPool = util.NewBufferPool(4096)

func writeInt64[T ~int64 | ~int](buf *bytes.Buffer, v T) {
	// Static allocation, length of max int64
	var lenBuf [20]byte

	buf.Write(strconv.AppendInt(lenBuf[:0], int64(v), 10))
}

func writeString[T ~string | ~[]byte](buf *bytes.Buffer, v T) {
	writeInt64(buf, len(v))
	buf.WriteByte(':')
	buf.Write([]byte(v))
}

func writeNumber[T ~int64 | ~int](buf *bytes.Buffer, v T) {
	buf.WriteByte('i')
	writeInt64(buf, v)
	buf.WriteByte('e')
}

// EncodeTo appends the canonical encoding of v to buf. Dictionary keys come
// out in ascending byte order since that is how Dict stores them.
func EncodeTo(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindBytes:
		writeString(buf, v.str)
	case KindInt:
		writeNumber(buf, v.num)
	case KindList:
		buf.WriteByte('l')

		for _, item := range v.list {
			if err := EncodeTo(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')

		for el := v.dict.Front(); el != nil; el = el.Next() {
			writeString(buf, el.Key.(string))

			if err := EncodeTo(buf, el.Value.(Value)); err != nil {
				return err
			}
		}

		buf.WriteByte('e')
	default:
		return ErrInvalidValue
	}

	return nil
}

func Encode(v Value) ([]byte, error) {
	buf := bufferPool.Take()
	defer bufferPool.Give(buf)

	if err := EncodeTo(buf, v); err != nil {
		return nil, err
	}

	return bytes.Clone(buf.Bytes()), nil
}
