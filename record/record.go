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

// Package record appends one JSON line per parsed torrent to hourly event files.
package record

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/moham96/dtorrent-parser/config"
	"github.com/moham96/dtorrent-parser/metainfo"
	"github.com/moham96/dtorrent-parser/util"
)

var (
	enabledByDefault = false // global for testing purposes
	directory        = "events"

	mutex       sync.Mutex
	initialized = false
	channel     chan []byte
	done        chan struct{}
)

func getFile(t time.Time) (*os.File, error) {
	name := filepath.Join(directory, "events_"+t.Format("2006-01-02T15")+".json")
	return os.OpenFile(name, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
}

func Enabled() bool {
	enabled, _ := config.GetBool("record", enabledByDefault)
	return enabled
}

// Init starts the writer goroutine when recording is enabled.
func Init() error {
	if !Enabled() {
		return nil
	}

	mutex.Lock()
	defer mutex.Unlock()

	if initialized {
		return nil
	}

	if err := os.Mkdir(directory, 0755); err != nil && !os.IsExist(err) {
		return err
	}

	start := time.Now()

	file, err := getFile(start)
	if err != nil {
		return err
	}

	channel = make(chan []byte, 64)
	done = make(chan struct{})

	go write(file, start, channel, done)

	initialized = true

	return nil
}

// write drains in until it is closed. While no file can be opened for the
// current hour, events are discarded and opening is retried on the next one.
func write(file *os.File, start time.Time, in <-chan []byte, finished chan<- struct{}) {
	defer close(finished)

	var err error

	for buf := range in {
		if now := time.Now(); file == nil || now.Hour() != start.Hour() || now.Sub(start) >= time.Hour {
			if file != nil {
				if err = file.Close(); err != nil {
					slog.Error("failed to close event file", "err", err)
				}
			}

			start = now

			if file, err = getFile(start); err != nil {
				slog.Error("failed to open event file, dropping event", "err", err)

				file = nil

				continue
			}
		}

		if _, err = file.Write(buf); err != nil {
			slog.Error("failed to write event", "err", err)
		}
	}

	if file == nil {
		return
	}

	if err = file.Close(); err != nil {
		slog.Error("failed to close event file", "err", err)
	}
}

// Close flushes pending events and stops the writer.
func Close() {
	mutex.Lock()
	defer mutex.Unlock()

	if !initialized {
		return
	}

	close(channel)
	<-done

	initialized = false
}

// Record queues one event line for t. source names where the torrent came from,
// e.g. an uploaded request or a file path.
func Record(t *metainfo.Torrent, source string) {
	if !Enabled() {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()

	if !initialized {
		panic("can not Record without prior initialization")
	}

	private := false
	if t.Private != nil {
		private = *t.Private
	}

	b := make([]byte, 0, 128)
	buf := bytes.NewBuffer(b)

	buf.WriteString("[")
	buf.WriteString(strconv.Quote(t.InfoHash()))
	buf.WriteString(",")
	writeJSONString(buf, t.Name())
	buf.WriteString(",")
	buf.WriteString(strconv.FormatInt(t.Length(), 10))
	buf.WriteString(",")
	buf.WriteString(strconv.Itoa(len(t.Files())))
	buf.WriteString(",")
	buf.WriteString(strconv.Itoa(t.PieceCount()))
	buf.WriteString(",")
	buf.WriteString(util.Btoa(private))
	buf.WriteString(",")
	writeJSONString(buf, source)
	buf.WriteString("]\n")

	channel <- buf.Bytes()
}

func writeJSONString(buf *bytes.Buffer, s string) {
	out, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}

	buf.Write(out)
}
