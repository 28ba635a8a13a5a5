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
	"fmt"
	"io"

	zeebo "github.com/zeebo/bencode"
)

var ErrTrailingData = errors.New("trailing data after value")

// Decode parses data, which must hold exactly one bencoded value.
func Decode(data []byte) (Value, error) {
	var raw interface{}

	decoder := zeebo.NewDecoder(bytes.NewReader(data))

	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return Value{}, fmt.Errorf("bencode: %w", err)
	}

	if parsed := decoder.BytesParsed(); parsed != len(data) {
		return Value{}, fmt.Errorf("bencode: %w (%d of %d bytes used)", ErrTrailingData, parsed, len(data))
	}

	return FromNative(raw)
}

// DecodeFrom reads one bencoded value from r.
func DecodeFrom(r io.Reader) (Value, error) {
	var raw interface{}

	if err := zeebo.NewDecoder(r).Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("bencode: %w", err)
	}

	return FromNative(raw)
}
