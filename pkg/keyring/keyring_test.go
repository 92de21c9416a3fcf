package keyring

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keyring.json")
	f := NewFile(path, "master")

	_, err := f.Get("wp@db:3306/site")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.Set("wp@db:3306/site", "s3cret"))
	got, err := NewFile(path, "master").Get("wp@db:3306/site")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	_, err = NewFile(path, "wrong").Get("wp@db:3306/site")
	assert.Error(t, err)

	require.NoError(t, f.Delete("wp@db:3306/site"))
	require.NoError(t, f.Delete("wp@db:3306/site"))
	_, err = f.Get("wp@db:3306/site")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileRequiresMasterPassword(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "keyring.json"), "")
	assert.ErrorIs(t, f.Set("a", "b"), ErrNoMasterPassword)
}

func TestOpenPrefersSystemKeyring(t *testing.T) {
	keyring.MockInit()

	s := Open(filepath.Join(t.TempDir(), "keyring.json"), "master")
	require.IsType(t, System{}, s)

	require.NoError(t, s.Set("wp@localhost:3306/wordpress", "pw"))
	got, err := s.Get("wp@localhost:3306/wordpress")
	require.NoError(t, err)
	assert.Equal(t, "pw", got)

	require.NoError(t, s.Delete("wp@localhost:3306/wordpress"))
	_, err = s.Get("wp@localhost:3306/wordpress")
	assert.ErrorIs(t, err, ErrNotFound)
}
