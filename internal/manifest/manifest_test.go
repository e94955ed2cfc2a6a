package manifest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(rel string) Entry {
	return Entry{
		Filename:     filepath.Base(rel),
		RelativePath: rel,
		SourceFolder: "card-import",
		Size:         2 * 1024 * 1024,
		Modified:     time.Date(2023, 1, 5, 14, 30, 0, 0, time.UTC),
		CaptureDate:  time.Date(2023, 1, 5, 14, 29, 58, 0, time.UTC),
		CameraMake:   "FUJIFILM",
		CameraModel:  "X-T4",
		Hash:         0xDEADBEEFCAFE0123,
		OrganizedAt:  time.Date(2023, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestUpdateAndRead(t *testing.T) {
	root := t.TempDir()

	added, err := Update(root, []Entry{
		sample("Originals/2023/2023-01-05/IMG_1.jpg"),
		sample("Originals/2023/2023-01-05/IMG_2.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	entries, err := Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "IMG_1.jpg", e.Filename)
	assert.Equal(t, "Originals/2023/2023-01-05/IMG_1.jpg", e.RelativePath)
	assert.Equal(t, "card-import", e.SourceFolder)
	assert.Equal(t, int64(2*1024*1024), e.Size)
	assert.Equal(t, "FUJIFILM", e.CameraMake)
	assert.Equal(t, "X-T4", e.CameraModel)
	assert.Equal(t, uint64(0xDEADBEEFCAFE0123), e.Hash)
	assert.True(t, e.CaptureDate.Equal(time.Date(2023, 1, 5, 14, 29, 58, 0, time.UTC)))
}

func TestUpdatePreservesExisting(t *testing.T) {
	root := t.TempDir()

	first := sample("Originals/2023/2023-01-05/IMG_1.jpg")
	_, err := Update(root, []Entry{first})
	require.NoError(t, err)

	// same path again with different data must not overwrite
	changed := first
	changed.CameraMake = "SONY"
	added, err := Update(root, []Entry{changed, sample("Originals/2023/2023-01-06/IMG_3.jpg")})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	entries, err := Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "FUJIFILM", entries[0].CameraMake)
}

func TestUpdateSortsByRelativePath(t *testing.T) {
	root := t.TempDir()

	_, err := Update(root, []Entry{
		sample("Originals/2023/2023-01-09/Z.jpg"),
		sample("Originals/2023/2023-01-01/A.jpg"),
		sample("Originals/2022/2022-06-01/M.jpg"),
	})
	require.NoError(t, err)

	entries, err := Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Originals/2022/2022-06-01/M.jpg", entries[0].RelativePath)
	assert.Equal(t, "Originals/2023/2023-01-01/A.jpg", entries[1].RelativePath)
	assert.Equal(t, "Originals/2023/2023-01-09/Z.jpg", entries[2].RelativePath)
}

func TestReadMissingManifest(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadSkipsMalformedRows(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0o755))

	f, err := os.Create(Path(root))
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.Write(sample("Originals/ok.jpg").row()))
	require.NoError(t, w.Write([]string{"short", "row"}))
	w.Flush()
	require.NoError(t, f.Close())

	entries, err := Read(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Originals/ok.jpg", entries[0].RelativePath)
}

func TestManifestFileShape(t *testing.T) {
	root := t.TempDir()
	_, err := Update(root, []Entry{sample("Originals/2023/2023-01-05/IMG_1.jpg")})
	require.NoError(t, err)

	f, err := os.Open(Path(root))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, header, rows[0])
	row := rows[1]
	assert.Equal(t, "2.00", row[4], "size in MB")
	assert.Equal(t, "2023:01:05 14:29:58", row[6], "capture date keeps the exif layout")
	assert.Equal(t, "deadbeefcafe0123", row[9], "hash is 16 hex chars")
	assert.Equal(t, ".jpg", row[10])

	// no stray temp files left behind
	dents, err := os.ReadDir(filepath.Join(root, Dir))
	require.NoError(t, err)
	require.Len(t, dents, 1)
	assert.Equal(t, FileName, dents[0].Name())
}
