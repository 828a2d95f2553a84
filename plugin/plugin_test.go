package plugin_test

import (
	"errors"
	"fmt"
	goplugin "plugin"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/katalvlaran/symad/internal/logger"
	"github.com/katalvlaran/symad/plugin"
)

func constant(name string, v any) plugin.Plugin {
	return plugin.Plugin{
		Name:    name,
		Doc:     "returns " + fmt.Sprint(v),
		Version: plugin.APIVersion,
		Creator: func(*plugin.Registry, any, map[string]any) (any, error) { return v, nil },
	}
}

// TestRegister_Duplicate keeps the first registration and warns.
func TestRegister_Duplicate(t *testing.T) {
	log, logs := logger.NewObserverLogger("warn")
	r := plugin.NewRegistry("linsol", plugin.WithLogger(log))

	require.NoError(t, r.Register(constant("lu", 1)))
	err := r.Register(constant("lu", 2))
	assert.ErrorIs(t, err, plugin.ErrAlreadyRegistered)
	assert.Equal(t, 1, logs.FilterMessage("plugin already registered").Len())

	v, err := r.Instantiate("lu", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

// TestRegister_Invalid rejects malformed plugins.
func TestRegister_Invalid(t *testing.T) {
	r := plugin.NewRegistry("linsol")
	assert.ErrorIs(t, r.Register(plugin.Plugin{Version: plugin.APIVersion}), plugin.ErrInvalidPlugin)
	assert.ErrorIs(t, r.Register(plugin.Plugin{Name: "x", Version: plugin.APIVersion}), plugin.ErrInvalidPlugin)
	assert.ErrorIs(t, r.Register(constant("a.b", 0)), plugin.ErrInvalidPlugin)

	old := constant("old", 0)
	old.Version = plugin.APIVersion + 1
	assert.ErrorIs(t, r.Register(old), plugin.ErrVersion)
	assert.Empty(t, r.Names())
}

// TestNames_Sorted lists registered names in order.
func TestNames_Sorted(t *testing.T) {
	r := plugin.NewRegistry("linsol")
	for _, n := range []string{"qr", "lu", "refine"} {
		require.NoError(t, r.Register(constant(n, n)))
	}
	assert.Equal(t, []string{"lu", "qr", "refine"}, r.Names())
	assert.Equal(t, "linsol", r.Infix())
	doc, err := r.Doc("qr")
	require.NoError(t, err)
	assert.Equal(t, "returns qr", doc)
}

// TestGet_NoLoader reports unknown names.
func TestGet_NoLoader(t *testing.T) {
	r := plugin.NewRegistry("linsol")
	_, err := r.Get("ma27")
	assert.ErrorIs(t, err, plugin.ErrNotFound)
	assert.False(t, r.Has("ma27"))
}

// TestGet_SingleLoad checks concurrent first lookups load exactly once.
func TestGet_SingleLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := plugin.NewMockLoader(ctrl)
	loader.EXPECT().Load("linsol", "ma27").Times(1).Return(constant("ma27", 27), nil)
	r := plugin.NewRegistry("linsol", plugin.WithLoader(loader))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.Get("ma27")
			assert.NoError(t, err)
			assert.Equal(t, "ma27", p.Name)
		}()
	}
	wg.Wait()
	assert.True(t, r.Has("ma27"))
	assert.Equal(t, []string{"ma27"}, r.Names())
}

// TestGet_FailureRetried ensures a failed load is attempted again later.
func TestGet_FailureRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := plugin.NewMockLoader(ctrl)
	gomock.InOrder(
		loader.EXPECT().Load("linsol", "ma57").Return(plugin.Plugin{}, plugin.ErrNotFound),
		loader.EXPECT().Load("linsol", "ma57").Return(constant("ma57", 57), nil),
	)
	r := plugin.NewRegistry("linsol", plugin.WithLoader(loader))

	_, err := r.Get("ma57")
	assert.ErrorIs(t, err, plugin.ErrNotFound)
	_, err = r.Get("ma57")
	assert.NoError(t, err)
}

// TestGet_WrongName rejects a loader answering with another plugin.
func TestGet_WrongName(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := plugin.NewMockLoader(ctrl)
	loader.EXPECT().Load("linsol", "a").Return(constant("b", 0), nil)
	r := plugin.NewRegistry("linsol", plugin.WithLoader(loader))
	_, err := r.Get("a")
	assert.ErrorIs(t, err, plugin.ErrInvalidPlugin)
}

// TestInstantiate_Adaptor passes the inner name through the adaptor option.
func TestInstantiate_Adaptor(t *testing.T) {
	r := plugin.NewRegistry("linsol")
	require.NoError(t, r.Register(constant("lu", "lu")))
	var seen map[string]any
	require.NoError(t, r.Register(plugin.Plugin{
		Name:    "refine",
		Version: plugin.APIVersion,
		Creator: func(reg *plugin.Registry, problem any, opts map[string]any) (any, error) {
			seen = opts
			return reg.Instantiate(opts["refine_solver"].(string), problem, nil)
		},
	}))
	require.NoError(t, r.Register(plugin.Plugin{
		Name:          "wrap",
		Version:       plugin.APIVersion,
		AdaptorOption: "inner",
		Creator: func(reg *plugin.Registry, problem any, opts map[string]any) (any, error) {
			return reg.Instantiate(opts["inner"].(string), problem, nil)
		},
	}))

	opts := map[string]any{"tol": 1e-9}
	v, err := r.Instantiate("refine.lu", nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "lu", v)
	assert.Equal(t, map[string]any{"tol": 1e-9, "refine_solver": "lu"}, seen)
	assert.NotContains(t, opts, "refine_solver")

	v, err = r.Instantiate("wrap.refine.lu", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "lu", v)
	assert.True(t, r.Has("refine.lu"))

	_, err = r.Instantiate("refine.ma27", nil, nil)
	assert.ErrorIs(t, err, plugin.ErrNotFound)
	assert.False(t, r.Has("refine.ma27"))
}

type fakeLib map[string]goplugin.Symbol

func (f fakeLib) Lookup(s string) (goplugin.Symbol, error) {
	if v, ok := f[s]; ok {
		return v, nil
	}
	return nil, errors.New("symbol not found")
}

// TestLibraryLoader_SearchOrder lists every path tried on failure.
func TestLibraryLoader_SearchOrder(t *testing.T) {
	var tried []string
	l := plugin.LibraryLoader{
		Paths:  []string{"/opt/symad"},
		Getenv: func(string) string { return "/a:/b" },
		Open: func(path string) (plugin.Symbols, error) {
			tried = append(tried, path)
			return nil, errors.New("no such file")
		},
	}
	_, err := l.Load("linsol", "ma27")
	require.ErrorIs(t, err, plugin.ErrNotFound)
	want := []string{
		"/opt/symad/libsymad_linsol_ma27.so",
		"/a/libsymad_linsol_ma27.so",
		"/b/libsymad_linsol_ma27.so",
		"libsymad_linsol_ma27.so",
		"./libsymad_linsol_ma27.so",
	}
	assert.Equal(t, want, tried)
	for _, p := range want {
		assert.Contains(t, err.Error(), p)
	}
}

// TestLibraryLoader_Symbol resolves the registration function.
func TestLibraryLoader_Symbol(t *testing.T) {
	good := plugin.LibraryLoader{
		Getenv: func(string) string { return "" },
		Open: func(string) (plugin.Symbols, error) {
			return fakeLib{"RegisterLinsol": func() plugin.Plugin { return constant("", 3) }}, nil
		},
	}
	p, err := good.Load("linsol", "ma27")
	require.NoError(t, err)
	assert.Equal(t, "ma27", p.Name)

	bad := plugin.LibraryLoader{
		Getenv: func(string) string { return "" },
		Open: func(string) (plugin.Symbols, error) {
			return fakeLib{"RegisterLinsol": 42}, nil
		},
	}
	_, err = bad.Load("linsol", "ma27")
	assert.ErrorIs(t, err, plugin.ErrBadSymbol)

	missing := plugin.LibraryLoader{
		Getenv: func(string) string { return "" },
		Open:   func(string) (plugin.Symbols, error) { return fakeLib{}, nil },
	}
	_, err = missing.Load("linsol", "ma27")
	assert.ErrorIs(t, err, plugin.ErrBadSymbol)
}

// TestLibraryLoader_Registry wires the library loader into a registry.
func TestLibraryLoader_Registry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(plugin.PathEnv, dir)
	r := plugin.NewRegistry("linsol", plugin.WithLoader(plugin.LibraryLoader{}))
	_, err := r.Get("nothere")
	require.ErrorIs(t, err, plugin.ErrNotFound)
	assert.Contains(t, err.Error(), dir)
	assert.Equal(t, "RegisterLinsol", plugin.SymbolName("linsol"))
	assert.Equal(t, "libsymad_linsol_lu.so", plugin.FileName("linsol", "lu"))
}
