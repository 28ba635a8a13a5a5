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
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/moham96/dtorrent-parser/catalog"
	"github.com/moham96/dtorrent-parser/collector"
	"github.com/moham96/dtorrent-parser/metainfo"
	"github.com/moham96/dtorrent-parser/record"

	"github.com/valyala/fasthttp"
)

// load parses the request body. On failure the error response is already in buf
// and the returned torrent is nil.
func load(ctx *fasthttp.RequestCtx, handler *httpHandler, buf *bytes.Buffer) (*metainfo.Torrent, int) {
	body := ctx.PostBody()
	if len(body) > handler.maxBody {
		failure(errTooLarge, buf)
		return nil, fasthttp.StatusRequestEntityTooLarge
	}

	taskCtx, cancel := handler.taskContext()
	defer cancel()

	start := time.Now()
	torrent, err := handler.pool.ParseBytes(taskCtx, body)

	collector.ObserveParse(time.Since(start), len(body), err)

	if err != nil {
		failure(err, buf)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fasthttp.StatusServiceUnavailable
		}

		return nil, fasthttp.StatusBadRequest
	}

	record.Record(torrent, "upload")

	if handler.catalog != nil {
		if err = handler.catalog.Store(taskCtx, torrent); err != nil {
			slog.Error("failed to store torrent in catalog", "infohash", torrent.InfoHash(), "err", err)
		}
	}

	return torrent, fasthttp.StatusOK
}

func parse(ctx *fasthttp.RequestCtx, handler *httpHandler, buf *bytes.Buffer) int {
	torrent, status := load(ctx, handler, buf)
	if torrent == nil {
		return status
	}

	summary, err := metainfo.Summarize(torrent)
	if err != nil {
		panic(err)
	}

	writeJSON(buf, summary)

	return fasthttp.StatusOK
}

func normalize(ctx *fasthttp.RequestCtx, handler *httpHandler, buf *bytes.Buffer) int {
	torrent, status := load(ctx, handler, buf)
	if torrent == nil {
		return status
	}

	taskCtx, cancel := handler.taskContext()
	defer cancel()

	start := time.Now()
	data, err := handler.pool.ToBytes(taskCtx, torrent)

	collector.ObserveSerialize(time.Since(start))

	if err != nil {
		failure(err, buf)
		return fasthttp.StatusServiceUnavailable
	}

	buf.Write(data)

	ctx.SetContentType("application/x-bittorrent")

	return fasthttp.StatusOK
}

// canonicalInfoHash lowercases a hex info hash as stored in the catalog.
func canonicalInfoHash(s string) (string, bool) {
	s = strings.ToLower(s)

	if len(s) != 2*metainfo.HashSize {
		return "", false
	}

	if _, err := hex.DecodeString(s); err != nil {
		return "", false
	}

	return s, true
}

func lookup(_ *fasthttp.RequestCtx, handler *httpHandler, infoHash string, buf *bytes.Buffer) int {
	if handler.catalog == nil {
		failure(errCatalogDisabled, buf)
		return fasthttp.StatusNotFound
	}

	infoHash, ok := canonicalInfoHash(infoHash)
	if !ok {
		failure(errNotFound, buf)
		return fasthttp.StatusNotFound
	}

	taskCtx, cancel := handler.taskContext()
	defer cancel()

	entry, err := handler.catalog.Get(taskCtx, infoHash)
	if errors.Is(err, catalog.ErrNotFound) {
		failure(err, buf)
		return fasthttp.StatusNotFound
	} else if err != nil {
		panic(err)
	}

	writeJSON(buf, entry)

	return fasthttp.StatusOK
}
