package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desc(name, module string) Descriptor {
	return Descriptor{
		Name:    name,
		Module:  module,
		Handler: func([]string) error { return nil },
	}
}

func TestBuilder_AddAndLookup(t *testing.T) {
	b := NewBuilder(Overwrite)
	require.NoError(t, b.Add(desc("heal", "a.go")))
	require.NoError(t, b.Add(desc("spawn", "a.go")))

	reg := b.Build()
	assert.Equal(t, 2, reg.Len())

	d, ok := reg.Lookup("heal")
	require.True(t, ok)
	assert.Equal(t, "a.go", d.Module)
	assert.NotNil(t, d.Handler)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_LookupIsCaseSensitive(t *testing.T) {
	b := NewBuilder(Overwrite)
	require.NoError(t, b.Add(desc("Heal", "a.go")))
	reg := b.Build()

	_, ok := reg.Lookup("heal")
	assert.False(t, ok)
	_, ok = reg.Lookup("Heal")
	assert.True(t, ok)
}

func TestRegistry_NamesInsertionOrder(t *testing.T) {
	b := NewBuilder(Overwrite)
	for _, n := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, b.Add(desc(n, "m.go")))
	}
	reg := b.Build()
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, reg.Names())

	ds := reg.Descriptors()
	require.Len(t, ds, 3)
	assert.Equal(t, "alpha", ds[1].Name)
}

func TestRegistry_NamesReturnsCopy(t *testing.T) {
	b := NewBuilder(Overwrite)
	require.NoError(t, b.Add(desc("heal", "a.go")))
	reg := b.Build()

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"heal"}, reg.Names())
}

func TestBuilder_OverwriteLastWins(t *testing.T) {
	b := NewBuilder(Overwrite)
	require.NoError(t, b.Add(desc("heal", "a.go")))
	require.NoError(t, b.Add(desc("other", "a.go")))

	err := b.Add(desc("heal", "b.go"))
	var ce *CollisionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "heal", ce.Name)
	assert.Equal(t, "a.go", ce.Existing)
	assert.Equal(t, "b.go", ce.Incoming)

	reg := b.Build()
	assert.Equal(t, 2, reg.Len())
	d, _ := reg.Lookup("heal")
	assert.Equal(t, "b.go", d.Module)
	// position of the first registration is kept
	assert.Equal(t, []string{"heal", "other"}, reg.Names())
}

func TestBuilder_RejectKeepsFirst(t *testing.T) {
	b := NewBuilder(Reject)
	require.NoError(t, b.Add(desc("heal", "a.go")))

	err := b.Add(desc("heal", "b.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"heal"`)

	reg := b.Build()
	assert.Equal(t, 1, reg.Len())
	d, _ := reg.Lookup("heal")
	assert.Equal(t, "a.go", d.Module)
}

func TestBuilder_AddAfterBuildPanics(t *testing.T) {
	b := NewBuilder(Overwrite)
	b.Build()
	assert.Panics(t, func() { _ = b.Add(desc("late", "x.go")) })
}

func TestEmptyAndNilRegistry(t *testing.T) {
	assert.Equal(t, 0, Empty().Len())
	assert.Empty(t, Empty().Names())

	var reg *Registry
	assert.Equal(t, 0, reg.Len())
	assert.Nil(t, reg.Names())
	_, ok := reg.Lookup("x")
	assert.False(t, ok)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"overwrite", Overwrite},
		{"reject", Reject},
		{"", Overwrite},
		{"bogus", Overwrite},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePolicy(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}
