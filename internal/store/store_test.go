package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/mdstruct/internal/doctree"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id, hash string, created time.Time) *Record {
	title := doctree.NewContainer(doctree.KindTitle)
	title.Append(doctree.NewText("Intro"))
	sec := doctree.NewSection(1, "intro", title)
	root := doctree.NewContainer(doctree.KindContainer)
	root.Append(sec)

	return &Record{
		ID:          id,
		Filename:    id + ".md",
		Title:       "Doc " + id,
		ContentHash: hash,
		Document: &doctree.Document{
			Title: "Doc " + id,
			Meta:  map[string]any{"author": "sam"},
			Root:  root,
		},
		Chunks:    []doctree.Chunk{{Text: "hello", Index: 0, Breadcrumb: []string{"Intro"}, SectionID: "intro"}},
		CreatedAt: created,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, sampleRecord("a", "h1", now)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.md", got.Filename)
	assert.Equal(t, "h1", got.ContentHash)
	assert.True(t, got.CreatedAt.Equal(now))
	require.NotNil(t, got.Document)
	assert.Equal(t, "sam", got.Document.Meta["author"])

	sec := got.Document.Root.Children[0]
	assert.Equal(t, doctree.KindSection, sec.Kind)
	assert.Equal(t, "intro", sec.ID)
	assert.Equal(t, "Intro", doctree.PlainText(sec.Title()))

	require.Len(t, got.Chunks, 1)
	assert.Equal(t, []string{"Intro"}, got.Chunks[0].Breadcrumb)
}

func TestPutReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("a", "h1", time.Time{})
	require.NoError(t, s.Put(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	rec.Title = "Renamed"
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPutRequiresID(t *testing.T) {
	s := testStore(t)
	err := s.Put(context.Background(), &Record{})
	assert.Error(t, err)
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByHash(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, sampleRecord("one", "same", base)))
	require.NoError(t, s.Put(ctx, sampleRecord("other", "diff", base)))

	got, err := s.FindByHash(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, "one", got.ID)

	_, err = s.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutRejectsDuplicateContent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, sampleRecord("first", "same", base)))
	err := s.Put(ctx, sampleRecord("second", "same", base.Add(time.Minute)))

	var dupErr *DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "first", dupErr.ExistingID)

	_, err = s.Get(ctx, "second")
	assert.ErrorIs(t, err, ErrNotFound)

	// Re-putting the same record with its own hash is still an update.
	rec := sampleRecord("first", "same", base)
	rec.Title = "Updated"
	require.NoError(t, s.Put(ctx, rec))
	got, err := s.Get(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, sampleRecord(id, id, base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Nil(t, list[0].Document)
	assert.Nil(t, list[0].Chunks)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("a", "h", time.Now())))
	require.NoError(t, s.Delete(ctx, "a"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
}

func TestGetRejectsMalformedTree(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, title, content_hash, tree, chunks, created_at)
		 VALUES ('bad', 'bad.md', 'Bad', 'h', ?, '[]', '2026-03-01T00:00:00.000000000Z')`,
		`{"title":"Bad","tree":{"type":"text","text":"x","children":[{"type":"text","text":"y"}]}}`)
	require.NoError(t, err)

	_, err = s.Get(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed tree")
}
