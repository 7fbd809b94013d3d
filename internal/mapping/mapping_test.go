package mapping

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Mapping{1, 2, 3, 4, 5}, Identity(5))
	assert.Empty(t, Identity(0))
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Mapping
	}{
		{"empty", "", nil},
		{"single", "1:4", Mapping{4}},
		{"skips malformed", "1:1, bogus, 3:3", Mapping{1, Unset, 3}},
		{"newlines and spaces", " 2 : 7 \n1:9\n\n", Mapping{9, 7}},
		{"out of order", "4:1,2:2", Mapping{Unset, 2, Unset, 1}},
		{"later pair wins", "1:1,1:5", Mapping{5}},
		{"zero channel", "1:0,2:2", Mapping{Unset, 2}},
		{"zero sensor", "0:1", nil},
		{"negative", "-1:3,1:-3", nil},
		{"not a number", "a:b,1:x", nil},
		{"too large", "1048577:1", nil},
		{"space separated", "1:1 2:2", Mapping{1, 2}},
		{"tabs and semicolons", "3:1\t1:3; 2 :2", Mapping{3, 2, 1}},
		{"malformed between spaces", "1:4 oops 2:5", Mapping{4, 5}},
		{"dangling colon stays on its line", "1:\n2:2", Mapping{Unset, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Parse(tc.input, nil))
		})
	}
}

func TestParseLogsMalformedEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	m := Parse("1:1, bogus, 3:3", logger)

	ch, ok := m.Channel(0)
	assert.True(t, ok)
	assert.Equal(t, 1, ch)

	ch, ok = m.Channel(2)
	assert.True(t, ok)
	assert.Equal(t, 3, ch)

	_, ok = m.Channel(1)
	assert.False(t, ok)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "entry=bogus")
}

func TestChannelFallback(t *testing.T) {
	t.Parallel()

	m := Mapping{7, Unset}

	tests := []struct {
		index  int
		want   int
		mapped bool
	}{
		{0, 7, true},
		{1, 2, false},
		{5, 6, false},
	}
	for _, tc := range tests {
		ch, ok := m.Channel(tc.index)
		assert.Equal(t, tc.want, ch, "sensor %d", tc.index)
		assert.Equal(t, tc.mapped, ok, "sensor %d", tc.index)
	}
}

func TestResolverDefaultsToIdentity(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	m := r.Resolve("", 5)
	assert.Equal(t, Mapping{1, 2, 3, 4, 5}, m)

	for i := range 5 {
		ch, ok := m.Channel(i)
		require.True(t, ok)
		assert.Equal(t, i+1, ch)
	}
}

func TestResolverMemoizes(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	assert.Zero(t, r.Version())

	first := r.Resolve("1:2", 3)
	assert.Equal(t, uint64(1), r.Version())

	second := r.Resolve("1:2", 10)
	assert.Equal(t, uint64(1), r.Version(), "count change between non-zero values reuses the mapping")
	assert.Same(t, &first[0], &second[0])

	r.Resolve("1:2", 0)
	assert.Equal(t, uint64(2), r.Version(), "count dropping to zero re-parses")

	r.Resolve("1:2", 0)
	assert.Equal(t, uint64(2), r.Version())

	r.Resolve("1:2", 4)
	assert.Equal(t, uint64(3), r.Version(), "count leaving zero re-parses")

	m := r.Resolve("1:3", 4)
	assert.Equal(t, uint64(4), r.Version())
	assert.Equal(t, Mapping{3}, m)
}

func TestResolverIdentityTracksZeroCount(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	assert.Empty(t, r.Resolve("", 0))
	assert.Equal(t, Mapping{1, 2}, r.Resolve("", 2))
	assert.Equal(t, uint64(2), r.Version())
}
