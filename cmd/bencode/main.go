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

package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"unicode/utf8"

	"github.com/moham96/dtorrent-parser/bencode"

	zeebo "github.com/zeebo/bencode"
)

var (
	encode, help bool
)

// provided at compile-time
var (
	BuildDate    = "0000-00-00T00:00:00+0000"
	BuildVersion = "development"
)

func init() {
	flag.BoolVar(&encode, "e", false, "Encodes JSON from stdin instead of decoding bencode")
	flag.BoolVar(&help, "h", false, "Prints this help message")
}

func main() {
	flag.Parse()

	if help {
		fmt.Printf("bencode for dtorrent, ver=%s date=%s runtime=%s\n\n", BuildVersion, BuildDate, runtime.Version())
		fmt.Printf("Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()

		return
	}

	var err error

	if encode {
		err = encodeJSON(os.Stdin, os.Stdout)
	} else {
		err = dumpJSON(os.Stdin, os.Stdout)
	}

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dumpJSON(r io.Reader, w io.Writer) error {
	v, err := bencode.DecodeFrom(r)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "\t")

	return encoder.Encode(jsonValue(v))
}

// jsonValue mirrors v for JSON output. Byte strings that are not valid UTF-8
// become {"hex": "..."} objects, dictionary keys keep their sorted order.
func jsonValue(v bencode.Value) interface{} {
	switch v.Kind() {
	case bencode.KindBytes:
		b, _ := v.Bytes()
		if !utf8.Valid(b) {
			return map[string]string{"hex": hex.EncodeToString(b)}
		}

		return string(b)
	case bencode.KindInt:
		i, _ := v.Int()
		return i
	case bencode.KindList:
		items, _ := v.List()

		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = jsonValue(item)
		}

		return out
	case bencode.KindDict:
		out := make(map[string]interface{}, v.Len())

		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			out[key] = jsonValue(item)
		}

		return out
	default:
		return nil
	}
}

func encodeJSON(r io.Reader, w io.Writer) error {
	var val interface{}

	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	if err := decoder.Decode(&val); err != nil {
		return err
	}

	return zeebo.NewEncoder(w).Encode(val)
}
