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
	"errors"
	"strconv"
)

var (
	ErrValidation      = errors.New("metainfo: missing required field")
	ErrDecode          = errors.New("metainfo: malformed bencode")
	ErrInvalidArgument = errors.New("metainfo: invalid argument")
	ErrExists          = errors.New("already exists")
)

// ValidationError names the first required field found missing. Field uses
// dotted notation with list indices, e.g. info.files[2].path.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + " " + strconv.Quote(e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return ErrDecode.Error() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
