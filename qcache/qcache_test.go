package qcache

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-smre/array"
	"github.com/cwbudde/algo-smre/conv"
	"github.com/stretchr/testify/require"
)

func testKey() Key {
	return Key{
		Shape:           array.Shape{H: 16, W: 16},
		KernelSizes:     []int{2, 4},
		Resolvent:       ResolventL2,
		MonteCarloSteps: 8,
	}
}

func TestKeyHashDeterministic(t *testing.T) {
	k1 := testKey()
	k2 := testKey()
	k2.KernelSizes = append([]int(nil), k1.KernelSizes...)

	if k1.Hash() != k2.Hash() {
		t.Fatal("identical keys hashed differently")
	}

	k3 := testKey()
	k3.MonteCarloSteps = 9
	if k1.Hash() == k3.Hash() {
		t.Fatal("distinct keys hashed identically")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	key := testKey()
	entry := Entry{Samples: [][]float64{{1, 2, 3}, {4, 5, 6}}}

	require.NoError(t, store.Save(key, entry))

	got, found, err := store.Load(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entry, got)
}

func TestStoreMissIsNotAnError(t *testing.T) {
	store := NewStore(t.TempDir())
	_, found, err := store.Load(testKey())
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreCorruptFileIsSoftError(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	key := testKey()

	// Overwrite the canonical path directly with garbage bytes, bypassing Save.
	hashPath := filepath.Join(dir, fmt.Sprintf("%x.qcache", key.Hash()))
	require.NoError(t, os.WriteFile(hashPath, []byte("not a gob stream"), 0o644))

	_, found, err := store.Load(key)
	require.False(t, found)
	require.Error(t, err)
	var cacheErr *CacheIOError
	require.ErrorAs(t, err, &cacheErr)
}

func TestCalibrateProducesFiniteQ(t *testing.T) {
	cfg := CalibrateConfig{
		Shape:           array.Shape{H: 16, W: 16},
		KernelSizes:     []int{2, 4},
		MonteCarloSteps: 16,
	}
	c := conv.NewSATConvolver(cfg.Shape.H, cfg.Shape.W)

	q, entry, err := Calibrate(cfg, c)
	require.NoError(t, err)
	require.False(t, math.IsNaN(q) || math.IsInf(q, 0))
	require.Len(t, entry.Samples, len(cfg.KernelSizes))
	for _, s := range entry.Samples {
		require.Len(t, s, cfg.MonteCarloSteps)
	}
}

func TestCalibrateCachedReusesEntry(t *testing.T) {
	store := NewStore(t.TempDir())
	key := testKey()
	key.Shape = array.Shape{H: 16, W: 16}
	key.KernelSizes = []int{2, 4}
	key.MonteCarloSteps = 16

	cfg := CalibrateConfig{
		Shape:           key.Shape,
		KernelSizes:     key.KernelSizes,
		MonteCarloSteps: key.MonteCarloSteps,
	}
	c := conv.NewSATConvolver(cfg.Shape.H, cfg.Shape.W)

	q1, entry1, warn1, err1 := CalibrateCached(store, key, cfg, c)
	require.NoError(t, err1)
	require.Nil(t, warn1)

	q2, entry2, warn2, err2 := CalibrateCached(store, key, cfg, c)
	require.NoError(t, err2)
	require.Nil(t, warn2)

	require.Equal(t, q1, q2)
	require.Equal(t, entry1, entry2)
}
