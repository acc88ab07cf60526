package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSplitKey(t *testing.T) {
	cases := []struct {
		root, key      string
		folder, public string
	}{
		{"learnhub", "courses/4/cover-1700000000.png", "learnhub/courses/4", "cover-1700000000"},
		{"", "courses/4/Go Course.jpg", "courses/4", "Go-Course"},
		{"/media/", "../../etc/???.jpg", "media/etc", "upload"},
		{"", "plain.webp", "", "plain"},
	}
	for _, tc := range cases {
		folder, public := SplitKey(tc.root, tc.key)
		require.Equal(t, tc.folder, folder, tc.key)
		require.Equal(t, tc.public, public, tc.key)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
