package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thumbnail() Params {
	return Params{"w": 100, "h": 150, "fit": "crop"}
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add("thumbnail", thumbnail()))

	ok, err := r.Has("thumbnail", false)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.Get("thumbnail")
	require.NoError(t, err)
	assert.Equal(t, thumbnail(), got)

	require.NoError(t, r.Remove("thumbnail", true))

	ok, err = r.Has("thumbnail", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("non_existing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPresetNotFound)
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, "preset non_existing does not exist")

	name, ok := PresetName(err)
	require.True(t, ok)
	assert.Equal(t, "non_existing", name)
}

func TestRegistry_AddDuplicateKeepsOriginal(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("thumbnail", thumbnail()))

	err := r.Add("thumbnail", Params{"w": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPresetExists)
	assert.True(t, IsExists(err))
	assert.False(t, IsNotFound(err))
	assert.EqualError(t, err, "preset thumbnail already exists")

	got, err := r.Get("thumbnail")
	require.NoError(t, err)
	assert.Equal(t, thumbnail(), got)
}

func TestRegistry_Override(t *testing.T) {
	tests := []struct {
		name    string
		seed    bool
		first   Params
		second  Params
		wantLen int
	}{
		{"absent before", false, Params{"w": 1}, Params{"w": 2}, 1},
		{"present before", true, Params{"w": 1}, Params{"w": 3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if tt.seed {
				require.NoError(t, r.Add("p", Params{"w": 0}))
			}

			require.NoError(t, r.Override("p", tt.first))
			require.NoError(t, r.Override("p", tt.second))

			got, err := r.Get("p")
			require.NoError(t, err)
			assert.Equal(t, tt.second, got)
			assert.Equal(t, tt.wantLen, r.Len())
		})
	}
}

func TestRegistry_EmptyNameRejected(t *testing.T) {
	r := NewRegistry()

	assert.ErrorIs(t, r.Add("", thumbnail()), ErrInvalidName)
	assert.ErrorIs(t, r.Override("", thumbnail()), ErrInvalidName)
	assert.Zero(t, r.Len())
}

func TestRegistry_HasRaise(t *testing.T) {
	r := NewRegistry()

	ok, err := r.Has("missing", true)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrPresetNotFound)

	require.NoError(t, r.Add("present", nil))
	ok, err = r.Has("present", true)
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.True(t, r.Exists("present"))
	assert.False(t, r.Exists("missing"))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("keep", thumbnail()))

	require.NoError(t, r.Remove("missing", false))
	assert.Equal(t, []string{"keep"}, r.Names())

	err := r.Remove("missing", true)
	assert.ErrorIs(t, err, ErrPresetNotFound)
	assert.Equal(t, []string{"keep"}, r.Names())
}

func TestRegistry_ExistenceSymmetry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add("a", nil))
	require.NoError(t, r.Override("b", nil))
	require.NoError(t, r.Remove("a", true))

	for name, want := range map[string]bool{"a": false, "b": true, "c": false} {
		ok, err := r.Has(name, false)
		require.NoError(t, err)
		assert.Equal(t, want, ok, name)
	}
}

func TestRegistry_AddManyUsesEachEntryName(t *testing.T) {
	r := NewRegistry()

	err := r.AddMany(map[string]Params{
		"small": {"w": 100},
		"large": {"w": 1000},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"large", "small"}, r.Names())
	small, err := r.Get("small")
	require.NoError(t, err)
	assert.Equal(t, Params{"w": 100}, small)
}

func TestRegistry_AddManyFailsFastWithoutRollback(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("b", Params{"w": 1}))

	err := r.AddMany(map[string]Params{
		"a": {"w": 2},
		"b": {"w": 3},
		"c": {"w": 4},
	}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPresetExists)

	name, ok := PresetName(err)
	require.True(t, ok)
	assert.Equal(t, "b", name)

	a, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, Params{"w": 2}, a)

	b, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, Params{"w": 1}, b)

	assert.False(t, r.Exists("c"))
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestRegistry_AddManyStopsAtEmptyName(t *testing.T) {
	for _, allowOverride := range []bool{false, true} {
		r := NewRegistry()

		err := r.AddMany(map[string]Params{
			"":  {"w": 1},
			"z": {"w": 2},
		}, allowOverride)
		assert.ErrorIs(t, err, ErrInvalidName)
		assert.False(t, r.Exists("z"))
		assert.Zero(t, r.Len())
	}
}

func TestRegistry_AddManyOverride(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("taken", Params{"w": 1}))

	err := r.AddMany(map[string]Params{
		"taken": {"w": 2},
		"fresh": {"w": 3},
	}, true)
	require.NoError(t, err)

	got, err := r.Get("taken")
	require.NoError(t, err)
	assert.Equal(t, Params{"w": 2}, got)
	assert.True(t, r.Exists("fresh"))
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("nested", Params{
		"w":    100,
		"mark": map[string]any{"pos": "center"},
	}))

	got, err := r.Get("nested")
	require.NoError(t, err)
	got["w"] = 1
	got["mark"].(map[string]any)["pos"] = "top"

	again, err := r.Get("nested")
	require.NoError(t, err)
	assert.Equal(t, 100, again["w"])
	assert.Equal(t, "center", again["mark"].(map[string]any)["pos"])
}

type watermark struct {
	Pos     string
	Opacity []float64
}

func TestRegistry_GetReturnsCopyOfTypedValues(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("typed", Params{
		"mark":  map[string]string{"pos": "center"},
		"sizes": []float64{1, 2},
		"icc":   []byte{0x01, 0x02},
		"wm":    &watermark{Pos: "left", Opacity: []float64{0.5}},
	}))

	got, err := r.Get("typed")
	require.NoError(t, err)
	got["mark"].(map[string]string)["pos"] = "top"
	got["sizes"].([]float64)[0] = 99
	got["icc"].([]byte)[0] = 0xff
	got["wm"].(*watermark).Pos = "right"
	got["wm"].(*watermark).Opacity[0] = 1

	listed := r.List()["typed"]
	listed["mark"].(map[string]string)["pos"] = "bottom"
	listed["sizes"].([]float64)[1] = 42

	again, err := r.Get("typed")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"pos": "center"}, again["mark"])
	assert.Equal(t, []float64{1, 2}, again["sizes"])
	assert.Equal(t, []byte{0x01, 0x02}, again["icc"])
	assert.Equal(t, &watermark{Pos: "left", Opacity: []float64{0.5}}, again["wm"])
}

func TestRegistry_AddCopiesTypedInput(t *testing.T) {
	r := NewRegistry()
	sizes := []int{100, 200}
	mark := map[string]string{"pos": "center"}
	require.NoError(t, r.Add("p", Params{"sizes": sizes, "mark": mark}))

	sizes[0] = 1
	mark["pos"] = "top"

	got, err := r.Get("p")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 200}, got["sizes"])
	assert.Equal(t, map[string]string{"pos": "center"}, got["mark"])
}

func TestRegistry_AddCopiesInput(t *testing.T) {
	r := NewRegistry()
	in := Params{"w": 100}
	require.NoError(t, r.Add("p", in))

	in["w"] = 5

	got, err := r.Get("p")
	require.NoError(t, err)
	assert.Equal(t, 100, got["w"])
}

func TestRegistry_ListIsSnapshot(t *testing.T) {
	r := NewRegistry(WithPresets(map[string]Params{
		"a": {"w": 1},
		"b": {"w": 2},
	}))

	list := r.List()
	require.Len(t, list, 2)
	delete(list, "a")
	list["b"]["w"] = 99
	list["c"] = Params{}

	assert.Equal(t, []string{"a", "b"}, r.Names())
	b, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 2, b["w"])
	assert.Equal(t, r.List(), r.List())
}

func TestRegistry_NilParamsStoredEmpty(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("empty", nil))

	got, err := r.Get("empty")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRegistry_ConcurrentOverrideAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("p", Params{"w": 0}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = r.Override("p", Params{"w": i})
		}
	}()
	for i := 0; i < 200; i++ {
		_, err := r.Get("p")
		require.NoError(t, err)
	}
	<-done
}
