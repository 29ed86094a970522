package rangevec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeVectorKeyEquals(t *testing.T) {
	tests := []struct {
		name string
		a    []LabelPair
		b    []LabelPair
		want bool
	}{
		{
			name: "same pairs, different order",
			a:    []LabelPair{{Name: []byte("job"), Value: []byte("a")}, {Name: []byte("instance"), Value: []byte("1")}},
			b:    []LabelPair{{Name: []byte("instance"), Value: []byte("1")}, {Name: []byte("job"), Value: []byte("a")}},
			want: true,
		},
		{
			name: "different value",
			a:    []LabelPair{{Name: []byte("job"), Value: []byte("a")}},
			b:    []LabelPair{{Name: []byte("job"), Value: []byte("b")}},
			want: false,
		},
		{
			name: "different size",
			a:    []LabelPair{{Name: []byte("job"), Value: []byte("a")}},
			b:    []LabelPair{{Name: []byte("job"), Value: []byte("a")}, {Name: []byte("instance"), Value: []byte("1")}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewRangeVectorKey(tt.a)
			b := NewRangeVectorKey(tt.b)
			require.Equal(t, tt.want, a.Equals(b))
			require.Equal(t, tt.want, b.Equals(a))
		})
	}
}

func TestRangeVectorKeyHashStableUnderReordering(t *testing.T) {
	a := NewRangeVectorKey([]LabelPair{{Name: []byte("job"), Value: []byte("a")}, {Name: []byte("instance"), Value: []byte("1")}})
	b := NewRangeVectorKey([]LabelPair{{Name: []byte("instance"), Value: []byte("1")}, {Name: []byte("job"), Value: []byte("a")}})
	require.Equal(t, a.Hash(), b.Hash())
	require.Equal(t, a.MapKey(), b.MapKey())
}

func TestRangeVectorKeyGet(t *testing.T) {
	k := NewRangeVectorKey([]LabelPair{{Name: []byte("job"), Value: []byte("a")}})
	v, ok := k.Get([]byte("job"))
	require.True(t, ok)
	require.Equal(t, []byte("a"), v)

	_, ok = k.Get([]byte("missing"))
	require.False(t, ok)
}

func TestRangeVectorKeyWithLabel(t *testing.T) {
	k := NewRangeVectorKey([]LabelPair{{Name: []byte("job"), Value: []byte("a")}})
	k2 := k.WithLabel([]byte("job"), []byte("b"))
	v, ok := k2.Get([]byte("job"))
	require.True(t, ok)
	require.Equal(t, []byte("b"), v)

	k3 := k.WithLabel([]byte("instance"), []byte("1"))
	require.Len(t, k3.Labels(), 2)
}
