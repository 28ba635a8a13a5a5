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
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/moham96/dtorrent-parser/config"
	"github.com/moham96/dtorrent-parser/log"
	"github.com/moham96/dtorrent-parser/metainfo"
	"github.com/moham96/dtorrent-parser/offload"
)

// Exit codes
const (
	exitOK = iota
	exitUsage
	exitMissing
	exitParse
	exitWrite
)

// Provided at compile-time
var (
	BuildDate    = "0000-00-00T00:00:00+0000"
	BuildVersion = "development"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		output      string
		force, help bool
	)

	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&output, "o", "", "Additionally re-serializes the torrent to the given path")
	flags.BoolVar(&force, "f", false, "Overwrites the -o path if it already exists")
	flags.BoolVar(&help, "h", false, "Shows this help dialog")

	if err := flags.Parse(args[1:]); err != nil {
		return exitUsage
	}

	if help {
		_, _ = fmt.Fprintf(stderr, "dtorrent, ver=%s date=%s\n\nUsage of %s: [flags] <file.torrent>\n",
			BuildVersion, BuildDate, args[0])
		flags.PrintDefaults()

		return exitOK
	}

	if flags.NArg() < 1 {
		_, _ = fmt.Fprintf(stderr, "Usage of %s: [flags] <file.torrent>\n", args[0])
		return exitUsage
	}

	level, _ := config.Get("log_level", "warn")
	log.Setup(stderr, level)

	path := flags.Arg(0)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(stderr, "%s: no such file\n", path)
		return exitMissing
	}

	workers, _ := config.Section("offload").GetInt("workers", 1)
	pool := offload.NewPool(workers)
	ctx := context.Background()

	torrent, err := pool.ParseFile(ctx, path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to parse %s: %v\n", path, err)
		return exitParse
	}

	summary, err := metainfo.Summarize(torrent)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to summarize %s: %v\n", path, err)
		return exitParse
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "\t")

	if err = encoder.Encode(summary); err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to write summary: %v\n", err)
		return exitWrite
	}

	if output != "" {
		if err = pool.WriteFile(ctx, output, torrent, force); err != nil {
			_, _ = fmt.Fprintf(stderr, "failed to write %s: %v\n", output, err)
			return exitWrite
		}
	}

	return exitOK
}
