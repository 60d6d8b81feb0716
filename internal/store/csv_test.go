package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarintel/internal/models"
)

var errInjected = errors.New("injected write failure")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errInjected
}

func TestCSVStore_LoadMissingFile(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"), Layout{})

	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestCSVStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy_news.csv")
	s := NewCSVStore(path, Layout{GroupColumn: models.ColumnCountry, KeepQuery: true, KeepSnippet: true})

	ds := models.Dataset{Records: []models.Record{
		{CollectedAt: at(1), PublishedAt: at(1), Title: "Solar, \"quoted\"", Source: "CBC", Link: "https://a", GroupKey: "CA", Query: "q", Snippet: "s"},
		{CollectedAt: at(2), Title: "Second", Source: "NYT", Link: "https://b", GroupKey: "US"},
	}}

	require.NoError(t, s.Save(context.Background(), ds))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ds, loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Date Scraped,Country,Title,Source,Link,Published At,Query,Snippet\n")
}

func TestCSVStore_OmitsPublishedWhenUnknown(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "x.csv"), Layout{GroupColumn: models.ColumnCompany})
	ds := models.Dataset{Records: []models.Record{{CollectedAt: at(1), Title: "A", Link: "https://a", GroupKey: "Kiewit"}}}

	assert.Equal(t, []string{"Date Scraped", "Company", "Title", "Source", "Link"}, Header(ds, s.layout))
}

func TestCSVStore_LoadLegacyHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utility_scale_solar_news.csv")
	legacy := "date_scraped,published_at,title,source,url\n" +
		"2025-06-01T10:00:00+00:00,2025-05-31T08:00:00Z,Big solar farm,Reuters,https://r/1\n" +
		"2025-06-01T10:00:00+00:00,,No date,AP,https://ap/2\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	ds, err := NewCSVStore(path, Layout{}).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	first := ds.Records[0]
	assert.Equal(t, "Big solar farm", first.Title)
	assert.Equal(t, "https://r/1", first.Link)
	assert.True(t, first.CollectedAt.Valid)
	assert.True(t, first.PublishedAt.Valid)
	assert.False(t, ds.Records[1].PublishedAt.Valid)
}

func TestCSVStore_AtomicSaveFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	s := NewCSVStore(path, Layout{})

	original := models.Dataset{Records: []models.Record{{CollectedAt: at(1), Title: "A", Link: "https://a"}}}
	require.NoError(t, s.Save(context.Background(), original))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	s.wrap = func(io.Writer) io.Writer { return failingWriter{} }

	_, err = MergeAndPersist(context.Background(), s, []models.Record{{CollectedAt: at(2), Title: "B", Link: "https://b"}}, MergeOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersist))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestCSVStore_SaveKeepsFileMode(t *testing.T) {
	dir := t.TempDir()

	fresh := NewCSVStore(filepath.Join(dir, "fresh.csv"), Layout{})
	require.NoError(t, fresh.Save(context.Background(), models.Dataset{}))

	fi, err := os.Stat(fresh.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())

	path := filepath.Join(dir, "shared.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date Scraped,Title,Source,Link\n"), 0o600))
	require.NoError(t, os.Chmod(path, 0o640))

	s := NewCSVStore(path, Layout{})
	batch := []models.Record{{CollectedAt: at(1), Title: "A", Link: "https://a"}}

	_, err = MergeAndPersist(context.Background(), s, batch, MergeOptions{})
	require.NoError(t, err)

	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm())
}

func TestMergeAndPersist_EmptyBatchNoWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	s := NewCSVStore(path, Layout{})

	stats, err := MergeAndPersist(context.Background(), s, nil, MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, MergeStats{}, stats)

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "empty batch must not create the dataset")
}

func TestMergeAndPersist_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	s := NewCSVStore(path, Layout{})
	ctx := context.Background()

	_, err := MergeAndPersist(ctx, s, []models.Record{{CollectedAt: at(1), Title: "A", Link: "https://a"}}, MergeOptions{})
	require.NoError(t, err)

	stats, err := MergeAndPersist(ctx, s, []models.Record{
		{CollectedAt: at(2), Title: "A again", Link: "https://a"},
		{CollectedAt: at(2), Title: "B", Link: "https://b"},
	}, MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 2, stats.Total)

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "A", ds.Records[0].Title)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Check(filepath.Join(dir, "nested", "data.csv")))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := Check(filepath.Join(blocker, "data.csv"))
	assert.Error(t, err)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open("parquet", "x", "t", Layout{})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}
