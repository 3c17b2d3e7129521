package fingerprint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIgnore(t *testing.T) {
	patterns, err := ParseIgnore([]byte("# header\n\n  **/*.pyc  \n/build/**\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"**/*.pyc", "build/**"}, patterns)
}

func TestParseIgnore_Default(t *testing.T) {
	patterns, err := ParseIgnore([]byte(DefaultIgnoreFile))
	require.NoError(t, err)
	assert.NotEmpty(t, patterns)
}

func TestParseIgnore_Invalid(t *testing.T) {
	_, err := ParseIgnore([]byte("ok/**\n[bad\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadIgnoreFile_Missing(t *testing.T) {
	patterns, err := ReadIgnoreFile(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Nil(t, patterns)

	patterns, err = ReadIgnoreFile("")
	require.NoError(t, err)
	assert.Nil(t, patterns)
}
