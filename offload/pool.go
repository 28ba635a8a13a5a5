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

// Package offload runs parse and serialize work on a bounded set of workers so
// callers such as request handlers never hash or touch the disk themselves.
package offload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/moham96/dtorrent-parser/metainfo"
	"github.com/moham96/dtorrent-parser/util"
)

type Pool struct {
	slots util.Semaphore
}

func NewPool(workers int) *Pool {
	return &Pool{slots: util.NewSemaphore(workers)}
}

// Workers returns the number of tasks that may run at once.
func (p *Pool) Workers() int {
	return cap(p.slots)
}

type result[T any] struct {
	value T
	err   error
}

// Submit runs task on a free worker and waits for its result. ctx bounds the
// wait only: a task that has started always runs to completion and releases
// its worker, even when the caller has stopped waiting. A panicking task is
// reported as an error.
func Submit[T any](ctx context.Context, p *Pool, task func() (T, error)) (T, error) {
	var zero T

	if !util.TryTakeSemaphore(ctx, p.slots) {
		return zero, ctx.Err()
	}

	done := make(chan result[T], 1)

	go func() {
		defer util.ReturnSemaphore(p.slots)

		var r result[T]

		defer func() {
			if err := recover(); err != nil {
				slog.Error("offloaded task panicked", "err", err, "stack", string(debug.Stack()))
				r = result[T]{err: fmt.Errorf("offload: task panicked: %v", err)}
			}

			done <- r
		}()

		r.value, r.err = task()
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// ParseBytes parses a copy of data on the pool.
func (p *Pool) ParseBytes(ctx context.Context, data []byte) (*metainfo.Torrent, error) {
	data = bytes.Clone(data)

	return Submit(ctx, p, func() (*metainfo.Torrent, error) {
		return metainfo.ParseBytes(data)
	})
}

func (p *Pool) ParseFile(ctx context.Context, path string) (*metainfo.Torrent, error) {
	return Submit(ctx, p, func() (*metainfo.Torrent, error) {
		return metainfo.ReadFile(path)
	})
}

// ToBytes serializes a snapshot of t taken before the task is queued.
func (p *Pool) ToBytes(ctx context.Context, t *metainfo.Torrent) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil torrent", metainfo.ErrInvalidArgument)
	}

	snapshot := t.Clone()

	return Submit(ctx, p, snapshot.ToBytes)
}

func (p *Pool) WriteFile(ctx context.Context, path string, t *metainfo.Torrent, force bool) error {
	if t == nil {
		return fmt.Errorf("%w: nil torrent", metainfo.ErrInvalidArgument)
	}

	snapshot := t.Clone()

	_, err := Submit(ctx, p, func() (struct{}, error) {
		return struct{}{}, metainfo.WriteFile(path, snapshot, force)
	})

	return err
}
