package dedupe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AirswitchAsa/media-tool/internal/config"
	"github.com/AirswitchAsa/media-tool/internal/meta"
	"github.com/AirswitchAsa/media-tool/internal/scan"
)

func rec(path string, size int64, content uint64, day string) scan.Record {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return scan.Record{
		Path:        path,
		Size:        size,
		ContentHash: content,
		ModTime:     d,
		Meta:        meta.Metadata{CaptureDate: d, Source: meta.SourceExif},
	}
}

func TestSignatureOf(t *testing.T) {
	r := rec("/lib/a.jpg", 100, 1, "2023-01-05")
	assert.Equal(t, Signature{Size: 100, Day: "2023-01-05"}, SignatureOf(r))
}

func TestGroupExact(t *testing.T) {
	t.Run("identical files group", func(t *testing.T) {
		groups := GroupExact([]scan.Record{
			rec("/lib/a.jpg", 100, 0xAA, "2023-01-05"),
			rec("/lib/copy of a.jpg", 100, 0xAA, "2023-01-05"),
			rec("/lib/unrelated.jpg", 333, 0xCC, "2023-01-05"),
		})

		require.Len(t, groups, 1)
		assert.True(t, groups[0].Exact)
		require.Len(t, groups[0].Files, 2)
		assert.Equal(t, "/lib/a.jpg", groups[0].Files[0].Path)
		assert.Equal(t, int64(200), groups[0].TotalSize())
	})

	t.Run("same signature different content stays apart", func(t *testing.T) {
		groups := GroupExact([]scan.Record{
			rec("/lib/shot1.png", 4096, 0x11, "2023-01-05"),
			rec("/lib/shot2.png", 4096, 0x22, "2023-01-05"),
		})
		assert.Empty(t, groups)
	})

	t.Run("failed records are ignored", func(t *testing.T) {
		bad := rec("/lib/bad.jpg", 100, 0xAA, "2023-01-05")
		bad.Err = os.ErrPermission

		groups := GroupExact([]scan.Record{
			bad,
			rec("/lib/a.jpg", 100, 0xAA, "2023-01-05"),
		})
		assert.Empty(t, groups)
	})

	t.Run("different days never group", func(t *testing.T) {
		groups := GroupExact([]scan.Record{
			rec("/lib/a.jpg", 100, 0xAA, "2023-01-05"),
			rec("/lib/b.jpg", 100, 0xAA, "2023-01-06"),
		})
		assert.Empty(t, groups)
	})

	t.Run("groups come out sorted", func(t *testing.T) {
		groups := GroupExact([]scan.Record{
			rec("/lib/z.jpg", 1, 0x1, "2023-01-05"),
			rec("/lib/z copy.jpg", 1, 0x1, "2023-01-05"),
			rec("/lib/a.jpg", 2, 0x2, "2023-01-05"),
			rec("/lib/a copy.jpg", 2, 0x2, "2023-01-05"),
		})
		require.Len(t, groups, 2)
		assert.Equal(t, "/lib/a copy.jpg", groups[0].Files[0].Path)
		assert.Equal(t, "/lib/z copy.jpg", groups[1].Files[0].Path)
	})
}

func TestKeeperPolicies(t *testing.T) {
	a := rec("/lib/IMG_0001.jpg", 100, 0xAA, "2023-01-05")
	b := rec("/lib/IMG_0001 (copy).jpg", 100, 0xAA, "2023-01-05")
	b.ModTime = a.ModTime.Add(-time.Hour)
	big := rec("/lib/IMG_0001_edited_large.jpg", 900, 0xBB, "2023-01-05")

	t.Run("shortest name", func(t *testing.T) {
		g := Group{Files: []scan.Record{b, a}}
		assert.Equal(t, a.Path, g.Keeper(config.KeepShortestName).Path)
	})

	t.Run("largest", func(t *testing.T) {
		g := Group{Files: []scan.Record{a, big, b}}
		assert.Equal(t, big.Path, g.Keeper(config.KeepLargest).Path)
	})

	t.Run("largest ties fall back to name", func(t *testing.T) {
		g := Group{Files: []scan.Record{b, a}}
		assert.Equal(t, a.Path, g.Keeper(config.KeepLargest).Path)
	})

	t.Run("oldest", func(t *testing.T) {
		g := Group{Files: []scan.Record{a, b}}
		assert.Equal(t, b.Path, g.Keeper(config.KeepOldest).Path)
	})
}

func TestResolve(t *testing.T) {
	groups := []Group{
		{Files: []scan.Record{
			rec("/lib/a.jpg", 100, 0xAA, "2023-01-05"),
			rec("/lib/a (1).jpg", 100, 0xAA, "2023-01-05"),
			rec("/lib/a (2).jpg", 100, 0xAA, "2023-01-05"),
		}},
	}

	dels := Resolve(groups, config.KeepShortestName)
	require.Len(t, dels, 2)
	for _, d := range dels {
		assert.Equal(t, "/lib/a.jpg", d.Keep)
		assert.NotEqual(t, d.Keep, d.Path)
		assert.Equal(t, int64(100), d.Size)
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.jpg")
	kept := filepath.Join(dir, "kept.jpg")
	require.NoError(t, os.WriteFile(gone, []byte("1234567890"), 0o644))
	require.NoError(t, os.WriteFile(kept, []byte("1234567890"), 0o644))

	dels := []Deletion{
		{Path: gone, Size: 10, Keep: kept},
		{Path: filepath.Join(dir, "missing.jpg"), Size: 99, Keep: kept},
	}

	removed, freed := Apply(dels, zerolog.Nop())
	assert.Equal(t, 1, removed)
	assert.Equal(t, int64(10), freed)

	_, err := os.Stat(gone)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(kept)
	assert.NoError(t, err)
}

func nearGroupInput() []scan.Record {
	mk := func(path string, ph uint64) scan.Record {
		r := rec(path, 100, ph, "2023-01-05")
		r.PHash = ph
		r.HasPHash = true
		return r
	}
	noHash := rec("/lib/video.mp4", 100, 0x77, "2023-01-05")

	return []scan.Record{
		mk("/lib/a.jpg", 0b0000),
		mk("/lib/b.jpg", 0b0001),          // 1 bit from a
		mk("/lib/c.jpg", 0b0011),          // 1 bit from b, 2 from a
		mk("/lib/far.jpg", 0xFFFF_FFFF_FFFF_0000),
		noHash,
	}
}

func TestGroupNear(t *testing.T) {
	t.Run("chained cluster", func(t *testing.T) {
		groups := GroupNear(nearGroupInput(), 1)

		require.Len(t, groups, 1)
		g := groups[0]
		require.Len(t, g.Files, 3)
		assert.Equal(t, "/lib/a.jpg", g.Files[0].Path)
		assert.Equal(t, "/lib/b.jpg", g.Files[1].Path)
		assert.Equal(t, "/lib/c.jpg", g.Files[2].Path)
		assert.Equal(t, 2, g.MaxDistance, "chaining can exceed the query radius")
	})

	t.Run("zero radius needs identical hashes", func(t *testing.T) {
		groups := GroupNear(nearGroupInput(), 0)
		assert.Empty(t, groups)
	})

	t.Run("files without a hash never join", func(t *testing.T) {
		groups := GroupNear(nearGroupInput(), 64)
		require.Len(t, groups, 1)
		for _, f := range groups[0].Files {
			assert.True(t, f.HasPHash)
		}
	})
}

func TestReview(t *testing.T) {
	groups := []Group{
		{Exact: true, Files: []scan.Record{
			rec("/lib/a.jpg", 100, 0xAA, "2023-01-05"),
			rec("/lib/a copy.jpg", 100, 0xAA, "2023-01-05"),
		}},
		{Exact: true, Files: []scan.Record{
			rec("/lib/b.jpg", 50, 0xBB, "2023-01-06"),
			rec("/lib/b copy.jpg", 50, 0xBB, "2023-01-06"),
		}},
	}

	run := func(input string) []Deletion {
		var out strings.Builder
		return Review(strings.NewReader(input), &out, groups, config.KeepShortestName, config.KeepLargest)
	}

	t.Run("yes takes everything", func(t *testing.T) {
		dels := run("y\n")
		require.Len(t, dels, 2)
	})

	t.Run("review accepts and rejects per group", func(t *testing.T) {
		dels := run("r\ny\nn\n")
		require.Len(t, dels, 1)
		assert.Equal(t, "/lib/a copy.jpg", dels[0].Path)
		assert.Equal(t, "/lib/a.jpg", dels[0].Keep)
	})

	t.Run("quit during review keeps confirmed", func(t *testing.T) {
		dels := run("r\ny\nq\n")
		require.Len(t, dels, 1)
	})

	t.Run("quit immediately", func(t *testing.T) {
		assert.Empty(t, run("q\n"))
	})

	t.Run("eof means quit", func(t *testing.T) {
		assert.Empty(t, run(""))
		assert.Empty(t, run("r\n"))
	})

	t.Run("input is case and space tolerant", func(t *testing.T) {
		dels := run("  Y \n")
		require.Len(t, dels, 2)
	})

	t.Run("empty plan asks nothing", func(t *testing.T) {
		var out strings.Builder
		dels := Review(strings.NewReader("y\n"), &out, nil, config.KeepShortestName, config.KeepLargest)
		assert.Empty(t, dels)
		assert.Empty(t, out.String())
	})

	t.Run("exact and near groups follow their own policies", func(t *testing.T) {
		mixed := []Group{
			{Exact: true, Files: []scan.Record{
				rec("/lib/x.jpg", 10, 0xCC, "2023-01-05"),
				rec("/lib/x copy.jpg", 999, 0xCD, "2023-01-05"),
			}},
			{Files: []scan.Record{
				rec("/lib/y edit.jpg", 999, 0xCE, "2023-01-05"),
				rec("/lib/y.jpg", 10, 0xCF, "2023-01-05"),
			}},
		}

		var out strings.Builder
		dels := Review(strings.NewReader("y\n"), &out, mixed, config.KeepShortestName, config.KeepLargest)
		require.Len(t, dels, 2)
		assert.Equal(t, "/lib/x copy.jpg", dels[0].Path, "exact group keeps the shortest name")
		assert.Equal(t, "/lib/y.jpg", dels[1].Path, "near group keeps the largest file")
	})
}
