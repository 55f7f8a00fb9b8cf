package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbd03/check-swear/lib/checkswear"
)

func TestDetections_WriteRead(t *testing.T) {
	db, err := NewSqliteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ds, err := NewDetections(db)
	require.NoError(t, err)

	err = ds.Write(DetectionInfo{
		Text:        "первый текст",
		Probability: 0.91,
		Timestamp:   time.Now().Add(-time.Minute),
		Notices:     []checkswear.Notice{{Name: "bins", Details: "clamped"}},
	})
	require.NoError(t, err)

	err = ds.Write(DetectionInfo{Text: "второй текст", Probability: 0.77, Timestamp: time.Now()})
	require.NoError(t, err)

	entries, err := ds.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "второй текст", entries[0].Text, "latest entry first")
	assert.InDelta(t, 0.77, entries[0].Probability, 1e-9)
	assert.Empty(t, entries[0].Notices)

	assert.Equal(t, "первый текст", entries[1].Text)
	require.Len(t, entries[1].Notices, 1)
	assert.Equal(t, "bins", entries[1].Notices[0].Name)
}

func TestDetections_ReadEmpty(t *testing.T) {
	db, err := NewSqliteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ds, err := NewDetections(db)
	require.NoError(t, err)

	entries, err := ds.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
