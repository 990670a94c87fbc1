package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	src := "ham\tHello, World!!\nspam\tWIN cash NOW!!!\nham\tok see you\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len(), "one record per line")
	assert.Equal(t, Record{Label: Ham, Text: "Hello, World!!"}, ds.Records[0])
	assert.Equal(t, Record{Label: Spam, Text: "WIN cash NOW!!!"}, ds.Records[1])
	assert.Equal(t, Record{Label: Ham, Text: "ok see you"}, ds.Records[2])
}

func TestLoad_PreservesOrder(t *testing.T) {
	src := "spam\tfirst\nham\tsecond\nspam\tthird\nham\tfourth\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())
	for i, text := range []string{"first", "second", "third", "fourth"} {
		assert.Equal(t, text, ds.Records[i].Text)
	}
}

func TestLoad_TabInsideMessageKept(t *testing.T) {
	// only the first tab separates label from message
	ds, err := Load(strings.NewReader("ham\tpart one\tpart two\n"))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "part one\tpart two", ds.Records[0].Text)
}

func TestLoad_Empty(t *testing.T) {
	ds, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "missing delimiter", src: "ham Hello\n", want: ErrFormat},
		{name: "missing delimiter on later line", src: "ham\tok\nspam no-tab-here\n", want: ErrFormat},
		{name: "bad label", src: "hamm\tHello\n", want: ErrLabel},
		{name: "empty label", src: "\tHello\n", want: ErrLabel},
		{name: "invalid utf-8", src: "ham\t\xff\xfe broken\n", want: ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_FailureDropsPartialResult(t *testing.T) {
	ds, err := Load(strings.NewReader("ham\tfine\nbroken line\n"))
	require.Error(t, err)
	assert.Equal(t, 0, ds.Len(), "no partial dataset on failure")
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "collection.tsv")
	require.NoError(t, os.WriteFile(file, []byte("ham\thello there\nspam\tfree prize\n"), 0o600))

	ds, err := LoadFile(file)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "no-such-file"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
}
