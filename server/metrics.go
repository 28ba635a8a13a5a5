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
	"log/slog"
	"time"

	"github.com/moham96/dtorrent-parser/collector"

	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
)

func metrics(ctx *fasthttp.RequestCtx, handler *httpHandler, buf *bytes.Buffer) int {
	collector.UpdateUptime(time.Since(handler.startTime).Seconds())
	collector.UpdateRequests(handler.requests.Load())
	collector.UpdateWorkers(handler.pool.Workers())

	if handler.catalog != nil {
		countCtx, cancel := handler.taskContext()

		if count, err := handler.catalog.Count(countCtx); err != nil {
			slog.Error("failed to count catalog entries", "err", err)
		} else {
			collector.UpdateCatalogSize(count)
		}

		cancel()
	}

	mfs, err := handler.registry.Gather()
	if err != nil {
		slog.Error("error while gathering metrics", "err", err)
	}

	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(buf, mf); err != nil {
			slog.Error("error in converting metrics to text", "err", err)
			panic(err)
		}
	}

	ctx.SetContentType(string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	return fasthttp.StatusOK
}
