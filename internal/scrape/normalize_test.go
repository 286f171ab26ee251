package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRegionName(t *testing.T) {
	t.Parallel()

	overrides := map[string]string{"Washington Dc": "Washington DC"}

	tests := []struct {
		name string
		slug string
		want string
	}{
		{"single word", "texas", "Texas"},
		{"hyphenated", "north-dakota", "North Dakota"},
		{"three words", "prince-edward-island", "Prince Edward Island"},
		{"override applied", "washington-dc", "Washington DC"},
		{"no override needed", "virgin-islands", "Virgin Islands"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, NormalizeRegionName(tc.slug, overrides))
		})
	}
}

func TestNormalizeRegionNameWithoutOverrides(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Washington Dc", NormalizeRegionName("washington-dc", nil))
}
