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
	"log/slog"
	"net"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/moham96/dtorrent-parser/catalog"
	"github.com/moham96/dtorrent-parser/collector"
	"github.com/moham96/dtorrent-parser/config"
	"github.com/moham96/dtorrent-parser/offload"
	"github.com/moham96/dtorrent-parser/record"
	"github.com/moham96/dtorrent-parser/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
)

type httpHandler struct {
	// Internal stats
	requests atomic.Uint64

	bufferPool *util.BufferPool
	pool       *offload.Pool
	catalog    *catalog.Catalog
	registry   *prometheus.Registry

	maxBody     int
	taskTimeout time.Duration

	// canceled on Stop so waiting handlers give up their slot in the pool
	ctx    context.Context
	cancel context.CancelFunc

	startTime time.Time
}

var (
	handler *httpHandler
	server  *fasthttp.Server
)

func newHandler(workers, maxBody int, taskTimeout time.Duration) *httpHandler {
	ctx, cancel := context.WithCancel(context.Background())

	h := &httpHandler{
		bufferPool:  util.NewBufferPool(4096),
		pool:        offload.NewPool(workers),
		registry:    prometheus.NewRegistry(),
		maxBody:     maxBody,
		taskTimeout: taskTimeout,
		ctx:         ctx,
		cancel:      cancel,
		startTime:   time.Now(),
	}

	h.registry.MustRegister(
		collector.NewCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector.UpdateWorkers(h.pool.Workers())

	return h
}

// taskContext bounds the time a request may wait for and run offloaded work.
func (handler *httpHandler) taskContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(handler.ctx, handler.taskTimeout)
}

func (handler *httpHandler) respond(ctx *fasthttp.RequestCtx, buf *bytes.Buffer) int {
	path := string(ctx.Path())

	switch {
	case path == "/parse" && ctx.IsPost():
		return parse(ctx, handler, buf)
	case path == "/normalize" && ctx.IsPost():
		return normalize(ctx, handler, buf)
	case path == "/metrics" && ctx.IsGet():
		return metrics(ctx, handler, buf)
	case path == "/alive" && ctx.IsGet():
		return alive(ctx, handler, buf)
	case strings.HasPrefix(path, "/torrent/") && ctx.IsGet():
		return lookup(ctx, handler, strings.TrimPrefix(path, "/torrent/"), buf)
	}

	failure(errNotFound, buf)

	return fasthttp.StatusNotFound
}

func (handler *httpHandler) serve(ctx *fasthttp.RequestCtx) {
	buf := handler.bufferPool.Take()
	defer handler.bufferPool.Give(buf)

	defer func() {
		if err := recover(); err != nil {
			slog.Error("serve panic", "err", err, "uri", string(ctx.RequestURI()), "stack", string(debug.Stack()))

			ctx.Response.Reset()
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)

			collector.IncrementErroredRequests()
		}
	}()

	ctx.SetContentType("application/json")

	status := handler.respond(ctx, buf)

	ctx.SetStatusCode(status)
	ctx.SetBody(buf.Bytes())

	handler.requests.Add(1)
}

// Start serves the API on the configured address and blocks until Stop is called.
func Start() {
	httpConfig := config.Section("http")

	addr, _ := httpConfig.Get("addr", ":34100")
	readTimeout, _ := httpConfig.GetInt("read_timeout", 5)
	writeTimeout, _ := httpConfig.GetInt("write_timeout", 5)
	maxBody, _ := httpConfig.GetInt("max_body", 16<<20)
	taskTimeout, _ := httpConfig.GetInt("task_timeout", 10)
	workers, _ := config.Section("offload").GetInt("workers", 4)

	handler = newHandler(workers, maxBody, time.Duration(taskTimeout)*time.Second)

	collector.TrackDrops()

	if err := record.Init(); err != nil {
		panic(err)
	}

	if catalog.Enabled() {
		dsn, err := catalog.DSN()
		if err != nil {
			panic(err)
		}

		ctx, cancel := handler.taskContext()
		handler.catalog, err = catalog.Open(ctx, dsn)

		cancel()

		if err != nil {
			panic(err)
		}
	}

	server = &fasthttp.Server{
		Handler:            handler.serve,
		Name:               "dtorrent",
		ReadTimeout:        time.Duration(readTimeout) * time.Second,
		WriteTimeout:       time.Duration(writeTimeout) * time.Second,
		MaxRequestBodySize: maxBody,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		panic(err)
	}

	slog.Info("ready and accepting new connections", "addr", addr, "workers", workers)

	if err = server.Serve(listener); err != nil {
		slog.Error("server stopped", "err", err)
	}

	slog.Info("now closed and not accepting any new connections")

	record.Close()

	if handler.catalog != nil {
		_ = handler.catalog.Close()
	}

	slog.Info("shutdown complete")
}

func Stop() {
	handler.cancel()

	// Shutdown waits for open requests and makes Serve return
	_ = server.Shutdown()
}
