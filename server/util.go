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

package server

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	errNotFound        = errors.New("not found")
	errTooLarge        = errors.New("request body too large")
	errCatalogDisabled = errors.New("catalog is not enabled")
)

func failure(err error, buf *bytes.Buffer) {
	// Reset buffer to prevent reuse of any written bytes
	buf.Reset()
	writeJSON(buf, map[string]string{"error": err.Error()})
}

func writeJSON(buf *bytes.Buffer, v interface{}) {
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		panic(err)
	}
}
