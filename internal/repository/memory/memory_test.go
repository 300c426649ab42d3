package memory

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settingscatalog/internal/domain"
	"settingscatalog/internal/provider"
	"settingscatalog/internal/provider/providertest"
	"settingscatalog/internal/repository"
)

var _ repository.EntryRepository = (*Repository)(nil)

func newTestRepo(t *testing.T, src ProviderSource, opts ...Option) *Repository {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	repo, err := New(src, opts...)
	require.NoError(t, err)
	return repo
}

func buildErr(t *testing.T, src ProviderSource, opts ...Option) error {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	repo, err := New(src, opts...)
	require.Error(t, err)
	assert.Nil(t, repo)
	return err
}

func page(name string) domain.Page {
	return providertest.Page(name)
}

func TestGetPageWithEntry(t *testing.T) {
	repo := newTestRepo(t, providertest.NewRegistry())

	assert.Len(t, repo.GetAllPageWithEntry(), 3)

	tests := []struct {
		name    string
		id      domain.PageID
		entries int
	}{
		{"home", domain.UniquePageID(providertest.Home), 1},
		{"layer1", domain.UniquePageID(providertest.Layer1), 3},
		{"layer2", domain.UniquePageID(providertest.Layer2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwe := repo.GetPageWithEntry(tt.id)
			require.NotNil(t, pwe)
			assert.Len(t, pwe.Entries, tt.entries)
		})
	}

	t.Run("registered but unreachable page is absent", func(t *testing.T) {
		assert.Nil(t, repo.GetPageWithEntry(domain.UniquePageID(providertest.WithParam)))
	})

	t.Run("unknown page is absent", func(t *testing.T) {
		assert.Nil(t, repo.GetPageWithEntry(domain.UniquePageID("Nope")))
	})
}

func TestGetEntry(t *testing.T) {
	repo := newTestRepo(t, providertest.NewRegistry())
	home, layer1, layer2 := page(providertest.Home), page(providertest.Layer1), page(providertest.Layer2)

	assert.Len(t, repo.GetAllEntries(), 7)

	ids := map[string]domain.EntryID{
		"root":         domain.UniqueEntryID(domain.RootEntryName, home, domain.NullPage(), home),
		"inject1":      domain.UniqueEntryID(domain.InjectEntryName, layer1, home, layer1),
		"inject2":      domain.UniqueEntryID(domain.InjectEntryName, layer2, layer1, layer2),
		"Layer1Entry1": domain.LeafEntryID("Layer1Entry1", layer1),
		"Layer1Entry2": domain.LeafEntryID("Layer1Entry2", layer1),
		"Layer2Entry1": domain.LeafEntryID("Layer2Entry1", layer2),
		"Layer2Entry2": domain.LeafEntryID("Layer2Entry2", layer2),
	}
	for name, id := range ids {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, repo.GetEntry(id))
		})
	}

	t.Run("unknown entry is absent", func(t *testing.T) {
		assert.Nil(t, repo.GetEntry(domain.LeafEntryID("Layer1Entry1", layer2)))
	})

	t.Run("every entry is retrievable by its own id", func(t *testing.T) {
		for _, e := range repo.GetAllEntries() {
			got := repo.GetEntry(e.ID)
			require.NotNil(t, got, e.Label)
			assert.Equal(t, e.Label, got.Label)
		}
	})
}

func TestGetEntryPath(t *testing.T) {
	repo := newTestRepo(t, providertest.NewRegistry())
	home, layer1, layer2 := page(providertest.Home), page(providertest.Layer1), page(providertest.Layer2)

	assert.Equal(t,
		[]string{"Layer2Entry1", "INJECT_SppLayer2", "INJECT_SppLayer1", "ROOT_SppHome"},
		repo.GetEntryPathWithDisplayName(domain.LeafEntryID("Layer2Entry1", layer2)),
	)

	assert.Equal(t,
		[]string{"entryTitle", "SppLayer2", "TitleLayer1", "TitleHome"},
		repo.GetEntryPathWithTitle(domain.LeafEntryID("Layer2Entry2", layer2), "entryTitle"),
	)

	assert.Equal(t,
		[]string{"INJECT_SppLayer1", "ROOT_SppHome"},
		repo.GetEntryPathWithDisplayName(domain.UniqueEntryID(domain.InjectEntryName, layer1, home, layer1)),
	)

	assert.Equal(t,
		[]string{"SppLayer2", "TitleLayer1", "TitleHome"},
		repo.GetEntryPathWithTitle(domain.UniqueEntryID(domain.InjectEntryName, layer2, layer1, layer2), "defaultTitle"),
	)

	t.Run("root entry path is itself", func(t *testing.T) {
		rootID := domain.UniqueEntryID(domain.RootEntryName, home, domain.NullPage(), home)
		assert.Equal(t, []string{"ROOT_SppHome"}, repo.GetEntryPathWithDisplayName(rootID))
		assert.Equal(t, []string{"TitleHome"}, repo.GetEntryPathWithTitle(rootID, "ignored"))
	})

	t.Run("unknown entry has an empty path", func(t *testing.T) {
		unknown := domain.LeafEntryID("missing", layer2)
		assert.Empty(t, repo.GetEntryPathWithDisplayName(unknown))
		assert.Empty(t, repo.GetEntryPathWithTitle(unknown, "x"))
	})

	t.Run("orphaned entry has an empty path", func(t *testing.T) {
		orphan := domain.NewLeafEntry("orphan", domain.NewPage("Detached"))
		repo := newTestRepo(t, providertest.NewRegistry())
		repo.entries[orphan.ID] = orphan
		assert.Empty(t, repo.GetEntryPathWithDisplayName(orphan.ID))
	})
}

func TestBuildIsDeterministic(t *testing.T) {
	first := newTestRepo(t, providertest.NewRegistry())
	second := newTestRepo(t, providertest.NewRegistry())

	assert.Equal(t, len(first.GetAllPageWithEntry()), len(second.GetAllPageWithEntry()))
	assert.Equal(t, first.GetAllEntries(), second.GetAllEntries())
	for i, pwe := range first.GetAllPageWithEntry() {
		assert.Equal(t, pwe.Page.ID, second.GetAllPageWithEntry()[i].Page.ID)
	}
}

func TestInjectEntryAndDepth(t *testing.T) {
	repo := newTestRepo(t, providertest.NewRegistry())
	home, layer1, layer2 := page(providertest.Home), page(providertest.Layer1), page(providertest.Layer2)

	pwe := repo.GetPageWithEntry(layer2.ID)
	require.NotNil(t, pwe)
	require.NotNil(t, pwe.InjectEntry)
	assert.Equal(t, domain.UniqueEntryID(domain.InjectEntryName, layer2, layer1, layer2), pwe.InjectEntry.ID)
	assert.Equal(t, "SppLayer2", repo.Title(layer2.ID))
	assert.Equal(t, "TitleHome", repo.Title(home.ID))

	assert.Equal(t, 1, repo.Depth(home.ID))
	assert.Equal(t, 2, repo.Depth(layer1.ID))
	assert.Equal(t, 3, repo.Depth(layer2.ID))
}

func TestSharedSubPageIsBuiltOnce(t *testing.T) {
	reg := provider.NewRegistry().
		MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{
			{Inject: "A"}, {Inject: "B"},
		}}, true).
		MustRegister(&provider.Static{ProviderName: "A", Entries: []provider.EntryDecl{{Inject: "Shared"}}}, false).
		MustRegister(&provider.Static{ProviderName: "B", Entries: []provider.EntryDecl{{Inject: "Shared"}}}, false).
		MustRegister(&provider.Static{ProviderName: "Shared", Entries: []provider.EntryDecl{{Name: "leaf"}}}, false)

	repo := newTestRepo(t, reg)

	assert.Len(t, repo.GetAllPageWithEntry(), 4)
	// root, Home x2, A, B, Shared leaf
	assert.Len(t, repo.GetAllEntries(), 6)

	// First discovery wins: Shared is reached through A
	assert.Equal(t,
		[]string{"leaf", "INJECT_Shared", "INJECT_A", "ROOT_Home"},
		repo.GetEntryPathWithDisplayName(domain.LeafEntryID("leaf", domain.NewPage("Shared"))),
	)
}

func TestParameterizedPage(t *testing.T) {
	arg := domain.Param{Key: "string_param", Value: "abc"}
	reg := provider.NewRegistry().
		MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{
			{Inject: "WithParam", Args: domain.Params{arg}},
		}}, true).
		MustRegister(&provider.Static{
			ProviderName: "WithParam",
			Parameters:   []string{"string_param"},
			Entries:      []provider.EntryDecl{{Name: "paramEntry"}},
		}, false)

	repo := newTestRepo(t, reg)

	assert.Nil(t, repo.GetPageWithEntry(domain.UniquePageID("WithParam")))
	pwe := repo.GetPageWithEntry(domain.UniquePageID("WithParam", arg))
	require.NotNil(t, pwe)
	assert.Equal(t, "abc", func() string { v, _ := pwe.Page.Params.Get("string_param"); return v }())
}

func TestDuplicateDeclarationOnPage(t *testing.T) {
	reg := provider.NewRegistry().
		MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{
			{Name: "same"}, {Name: "same"},
		}}, true)

	repo := newTestRepo(t, reg)
	pwe := repo.GetPageWithEntry(domain.UniquePageID("Home"))
	require.NotNil(t, pwe)
	assert.Len(t, pwe.Entries, 1)
}

func TestBuildErrors(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{{Inject: "Ghost"}}}, true)
		err := buildErr(t, reg)
		assert.True(t, errors.Is(err, ErrUnknownProvider))
		assert.Contains(t, err.Error(), "Ghost")
	})

	t.Run("conflicting entries", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{
				{Name: "same"}, {Name: "same", Label: "Other label"},
			}}, true)
		err := buildErr(t, reg)
		assert.True(t, errors.Is(err, ErrDuplicateEntry))
	})

	t.Run("provider error", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{{}}}, true)
		err := buildErr(t, reg)
		assert.Contains(t, err.Error(), "build page Home")
	})

	t.Run("too many entries", func(t *testing.T) {
		err := buildErr(t, providertest.NewRegistry(), WithMaxEntries(3))
		assert.True(t, errors.Is(err, ErrTooManyEntries))
	})

	t.Run("too deep", func(t *testing.T) {
		err := buildErr(t, providertest.NewRegistry(), WithMaxDepth(2))
		assert.True(t, errors.Is(err, ErrPathTooDeep))
	})
}

func TestCycleDetection(t *testing.T) {
	t.Run("two page cycle", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{{Inject: "Layer1"}}}, true).
			MustRegister(&provider.Static{ProviderName: "Layer1", Entries: []provider.EntryDecl{{Inject: "Home"}}}, false)

		err := buildErr(t, reg)
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"Home", "Layer1", "Home"}, cycleErr.Pages)
	})

	t.Run("self injection", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{{Inject: "Home"}}}, true)

		err := buildErr(t, reg)
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"Home", "Home"}, cycleErr.Pages)
	})

	t.Run("longer cycle below the root", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{{Inject: "A"}}}, true).
			MustRegister(&provider.Static{ProviderName: "A", Entries: []provider.EntryDecl{{Inject: "B"}}}, false).
			MustRegister(&provider.Static{ProviderName: "B", Entries: []provider.EntryDecl{{Inject: "C"}}}, false).
			MustRegister(&provider.Static{ProviderName: "C", Entries: []provider.EntryDecl{{Inject: "A"}}}, false)

		err := buildErr(t, reg)
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"A", "B", "C", "A"}, cycleErr.Pages)
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		reg := provider.NewRegistry().
			MustRegister(&provider.Static{ProviderName: "Home", Entries: []provider.EntryDecl{{Inject: "A"}, {Inject: "B"}}}, true).
			MustRegister(&provider.Static{ProviderName: "A", Entries: []provider.EntryDecl{{Inject: "D"}}}, false).
			MustRegister(&provider.Static{ProviderName: "B", Entries: []provider.EntryDecl{{Inject: "D"}}}, false).
			MustRegister(&provider.Static{ProviderName: "D"}, false)

		newTestRepo(t, reg)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	repo := newTestRepo(t, providertest.NewRegistry(), WithRegisterer(reg))

	repo.GetEntry(domain.LeafEntryID("Layer2Entry1", page(providertest.Layer2)))
	repo.GetEntry(domain.LeafEntryID("missing", page(providertest.Layer2)))
	repo.GetPageWithEntry(domain.UniquePageID(providertest.WithParam))

	assert.Equal(t, 1.0, testutil.ToFloat64(repo.metrics.lookups.WithLabelValues("entry", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(repo.metrics.lookups.WithLabelValues("entry", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(repo.metrics.lookups.WithLabelValues("page", "miss")))
	assert.Equal(t, 7.0, testutil.ToFloat64(repo.metrics.buildSize))

	t.Run("second repository reuses collectors", func(t *testing.T) {
		again := newTestRepo(t, providertest.NewRegistry(), WithRegisterer(reg))
		again.GetEntry(domain.LeafEntryID("missing", page(providertest.Layer2)))
		assert.Equal(t, 2.0, testutil.ToFloat64(repo.metrics.lookups.WithLabelValues("entry", "miss")))
	})
}

func TestConcurrentReads(t *testing.T) {
	repo := newTestRepo(t, providertest.NewRegistry())
	leaf := domain.LeafEntryID("Layer2Entry1", page(providertest.Layer2))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Len(t, repo.GetEntryPathWithDisplayName(leaf), 4)
				assert.NotNil(t, repo.GetEntry(leaf), fmt.Sprintf("worker %d", i))
				assert.Len(t, repo.GetAllPageWithEntry(), 3)
			}
		}(i)
	}
	wg.Wait()
}
