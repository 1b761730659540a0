// Copyright 2025 The Ember Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bufferpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New(0, 4)
	require.Error(t, err)

	_, err = New(1024, 0)
	require.Error(t, err)

	p, err := New(1024, 4)
	require.NoError(t, err)
	assert.Equal(t, 1024, p.BufferSize())
}

func TestAcquireReturnsEmptyBuffer(t *testing.T) {
	p := MustNew(64, 2)

	b, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 64, b.Cap())

	// A released buffer comes back reset even if the previous user left
	// data in it.
	copy(b.Storage(), "hello")
	b.SetValidLen(5)
	require.NoError(t, p.Release(b))

	b2, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 0, b2.Len())
}

func TestExhaustion(t *testing.T) {
	const max = 3
	p := MustNew(32, max)

	held := make([]*Buffer, 0, max)
	for i := 0; i < max; i++ {
		b, err := p.Acquire()
		require.NoError(t, err)
		held = append(held, b)
	}

	_, err := p.Acquire()
	require.ErrorIs(t, err, ErrExhausted)

	// Releasing any buffer makes a new acquire succeed again.
	require.NoError(t, p.Release(held[0]))
	b, err := p.Acquire()
	require.NoError(t, err)
	assert.Same(t, held[0], b)
}

func TestDoubleReleaseDetected(t *testing.T) {
	p := MustNew(32, 2)

	b, err := p.Acquire()
	require.NoError(t, err)

	require.NoError(t, p.Release(b))
	require.ErrorIs(t, p.Release(b), ErrAlreadyReleased)
	require.ErrorIs(t, p.Release(b), ErrAlreadyReleased)
}

func TestForeignBufferRejected(t *testing.T) {
	p := MustNew(32, 2)
	other := MustNew(32, 2)

	foreign, err := other.Acquire()
	require.NoError(t, err)

	require.ErrorIs(t, p.Release(foreign), ErrNotInPool)
	require.ErrorIs(t, p.Release(nil), ErrNotInPool)
}

func TestStatsBalance(t *testing.T) {
	p := MustNew(32, 4)

	a, _ := p.Acquire()
	b, _ := p.Acquire()
	c, _ := p.Acquire()
	require.NoError(t, p.Release(b))

	stats := p.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Free)
	assert.Equal(t, 2, stats.InUse)
	assert.Equal(t, uint64(3), stats.TotalAcquired)
	assert.Equal(t, uint64(1), stats.TotalReleased)
	assert.Equal(t, uint64(3), stats.Peak)
	assert.Equal(t, stats.InUse, int(stats.TotalAcquired-stats.TotalReleased))

	require.NoError(t, p.Release(a))
	require.NoError(t, p.Release(c))
	stats = p.Stats()
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, uint64(3), stats.Peak)
}

func TestFailedAcquireDoesNotSkewStats(t *testing.T) {
	p := MustNew(32, 1)

	b, err := p.Acquire()
	require.NoError(t, err)

	_, err = p.Acquire()
	require.ErrorIs(t, err, ErrExhausted)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.TotalAcquired)
	assert.Equal(t, 1, stats.InUse)

	require.NoError(t, p.Release(b))
}

func TestConcurrentAcquireRelease(t *testing.T) {
	const (
		workers = 8
		rounds  = 500
	)
	p := MustNew(128, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				b, err := p.Acquire()
				if err != nil {
					// Exhaustion is possible while peers hold buffers;
					// it must never corrupt the pool.
					continue
				}
				copy(b.Storage(), "x")
				b.SetValidLen(1)
				if err := p.Release(b); err != nil {
					t.Errorf("release failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stats := p.Stats()
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, stats.TotalAcquired, stats.TotalReleased)
	assert.LessOrEqual(t, stats.Total, workers)
	assert.LessOrEqual(t, stats.Peak, uint64(workers))
}
