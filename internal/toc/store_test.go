package toc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	LoadFunc func(ctx context.Context) ([]Entry, map[string]string, error)
}

func (m *mockSource) Load(ctx context.Context) ([]Entry, map[string]string, error) {
	return m.LoadFunc(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_Reload(t *testing.T) {
	t.Parallel()

	calls := 0
	src := &mockSource{LoadFunc: func(context.Context) ([]Entry, map[string]string, error) {
		calls++
		slug := "first"
		if calls > 1 {
			slug = "second"
		}
		return []Entry{{Category: "office", Page: domain.NewDocumentPage(slug, doc(slug, ""))}}, nil, nil
	}}

	store := NewStore(discardLogger(), src)
	assert.Nil(t, store.Load())

	first, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, store.Load())

	_, err = store.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", store.Load().Lookup("office", nil)[0].Slug)
	assert.Equal(t, "first", first.Lookup("office", nil)[0].Slug, "old index must stay intact")
	assert.NotEqual(t, first.Revision(), store.Load().Revision())
}

func staticStore(text string) *Store {
	return NewStore(discardLogger(), &mockSource{LoadFunc: func(context.Context) ([]Entry, map[string]string, error) {
		return []Entry{{Category: "office", Page: domain.NewDocumentPage("compline", doc(text, ""))}},
			map[string]string{"office": "Daily Office"}, nil
	}})
}

func TestStore_Revision_FollowsContentAcrossStores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deployA, err := staticStore("Keep watch, dear Lord").Reload(ctx)
	require.NoError(t, err)
	deployB, err := staticStore("Keep watch, dear Lord").Reload(ctx)
	require.NoError(t, err)
	edited, err := staticStore("Guide us waking, O Lord").Reload(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, deployA.Revision())
	assert.Equal(t, deployA.Revision(), deployB.Revision(), "same corpus, separate processes")
	assert.NotEqual(t, deployA.Revision(), edited.Revision(), "edited corpus")
}

func TestStore_Swap_KeepsBuildRevision(t *testing.T) {
	t.Parallel()

	store := NewStore(discardLogger(), &mockSource{})
	a := Build([]Entry{{Category: "office", Page: domain.NewDocumentPage("a", doc("a", ""))}}, nil)
	b := Build([]Entry{{Category: "office", Page: domain.NewDocumentPage("b", doc("b", ""))}}, nil)

	assert.Nil(t, store.Swap(a))
	assert.Same(t, a, store.Swap(b))
	assert.NotEmpty(t, store.Load().Revision())
	assert.NotEqual(t, a.Revision(), b.Revision())
}

func TestStore_Reload_RejectsUnknownBucketVersion(t *testing.T) {
	t.Parallel()

	bogus := domain.Version("RiteIII")
	store := NewStore(discardLogger(), &mockSource{LoadFunc: func(context.Context) ([]Entry, map[string]string, error) {
		return []Entry{{Category: "office", Version: &bogus, Page: domain.NewDocumentPage("a", doc("a", ""))}}, nil, nil
	}})

	_, err := store.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrValidation)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{"entries[0].version": `unknown version "RiteIII"`}, ve.Fields())
	assert.Nil(t, store.Load())
}

func TestStore_Reload_SourceErrorKeepsCurrent(t *testing.T) {
	t.Parallel()

	store := NewStore(discardLogger(), &mockSource{LoadFunc: func(context.Context) ([]Entry, map[string]string, error) {
		return nil, nil, errors.New("disk on fire")
	}})
	current := Build(nil, nil)
	store.Swap(current)

	_, err := store.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, current, store.Load())
}

func TestStore_Reload_RejectsInvalidPages(t *testing.T) {
	t.Parallel()

	store := NewStore(discardLogger(), &mockSource{LoadFunc: func(context.Context) ([]Entry, map[string]string, error) {
		return []Entry{
			{Category: "", Page: domain.NewDocumentPage("a", doc("a", ""))},
			{Category: "office", Page: domain.Page{Kind: domain.PageDocument}},
		}, nil, nil
	}})

	_, err := store.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrValidation)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
	assert.Nil(t, store.Load())
}
