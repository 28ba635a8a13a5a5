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

package offload

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moham96/dtorrent-parser/bencode"
	"github.com/moham96/dtorrent-parser/metainfo"
)

var testTorrent = bencode.Dict(map[string]bencode.Value{
	"announce": bencode.String("http://tracker.example/announce"),
	"info": bencode.Dict(map[string]bencode.Value{
		"name":         bencode.String("a.txt"),
		"piece length": bencode.Int(16384),
		"pieces":       bencode.Bytes(make([]byte, 20)),
		"length":       bencode.Int(1000),
	}),
})

func testTorrentBytes(t *testing.T) []byte {
	t.Helper()

	data, err := bencode.Encode(testTorrent)
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	return data
}

func TestSubmit(t *testing.T) {
	p := NewPool(1)

	got, err := Submit(context.Background(), p, func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Fatalf("Expected 42, got %d (%v)", got, err)
	}

	expectedErr := errors.New("boom")
	if _, err = Submit(context.Background(), p, func() (int, error) { return 0, expectedErr }); !errors.Is(err, expectedErr) {
		t.Fatalf("Expected task error to be returned, got %v", err)
	}

	if _, err = Submit(context.Background(), p, func() (int, error) { panic("kaboom") }); err == nil {
		t.Fatalf("Expected panic to be reported as an error")
	}

	// The panicking task must have released its worker
	if _, err = Submit(context.Background(), p, func() (int, error) { return 1, nil }); err != nil {
		t.Fatalf("Pool unusable after panic: %v", err)
	}
}

func TestSubmitBounded(t *testing.T) {
	const workers = 2

	var (
		p       = NewPool(workers)
		running atomic.Int32
		peak    atomic.Int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _ = Submit(context.Background(), p, func() (struct{}, error) {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}

				time.Sleep(10 * time.Millisecond)
				running.Add(-1)

				return struct{}{}, nil
			})
		}()
	}

	wg.Wait()

	if peak.Load() > workers {
		t.Fatalf("Expected at most %d concurrent tasks, saw %d", workers, peak.Load())
	}

	if p.Workers() != workers {
		t.Fatalf("Expected %d workers, got %d", workers, p.Workers())
	}
}

func TestSubmitContext(t *testing.T) {
	p := NewPool(1)

	release := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		_, _ = Submit(context.Background(), p, func() (struct{}, error) {
			<-release
			close(finished)

			return struct{}{}, nil
		})
	}()

	// Wait until the blocking task holds the only worker
	for len(p.slots) != 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := Submit(ctx, p, func() (int, error) { return 1, nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded while waiting for a worker, got %v", err)
	}

	close(release)
	<-finished

	if _, err := Submit(context.Background(), p, func() (int, error) { return 1, nil }); err != nil {
		t.Fatalf("Worker was not released: %v", err)
	}
}

func TestPoolHelpers(t *testing.T) {
	var (
		p   = NewPool(2)
		ctx = context.Background()
	)

	data := testTorrentBytes(t)

	torrent, err := p.ParseBytes(ctx, data)
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}

	out, err := p.ToBytes(ctx, torrent)
	if err != nil {
		t.Fatalf("ToBytes failed: %v", err)
	}

	again, err := p.ParseBytes(ctx, out)
	if err != nil || again.InfoHash() != torrent.InfoHash() {
		t.Fatalf("Round trip through the pool changed the torrent: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sub", "a.torrent")

	if err = p.WriteFile(ctx, path, torrent, false); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err = p.WriteFile(ctx, path, torrent, false); !errors.Is(err, metainfo.ErrExists) {
		t.Fatalf("Expected ErrExists, got %v", err)
	}

	fromFile, err := p.ParseFile(ctx, path)
	if err != nil || fromFile.InfoHash() != torrent.InfoHash() {
		t.Fatalf("ParseFile returned a different torrent: %v", err)
	}

	if _, err = p.ParseBytes(ctx, []byte("garbage")); !errors.Is(err, metainfo.ErrDecode) {
		t.Fatalf("Expected decode error, got %v", err)
	}

	if _, err = p.ToBytes(ctx, nil); !errors.Is(err, metainfo.ErrInvalidArgument) {
		t.Fatalf("Expected invalid argument, got %v", err)
	}
}
