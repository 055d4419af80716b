package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	_, err := s.Get(ClientTokenKey)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)

	require.NoError(t, s.Set(ClientTokenKey, "secret"))
	got, err := s.Get(ClientTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, s.Delete(ClientTokenKey))
	_, err = s.Get(ClientTokenKey)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestResolveToken(t *testing.T) {
	withToken := NewStore(keyring.NewArrayKeyring([]keyring.Item{
		{Key: ClientTokenKey, Data: []byte("from-ring")},
	}))
	empty := NewStore(keyring.NewArrayKeyring(nil))

	tests := []struct {
		name       string
		env        string
		store      *Store
		configured string
		want       string
		from       string
	}{
		{"env wins", "from-env", withToken, "from-config", "from-env", "env"},
		{"config before keyring", "", withToken, "from-config", "from-config", "config"},
		{"keyring when config unset", "", withToken, "", "from-ring", "keyring"},
		{"keyring when config is default", "", withToken, "fallback", "from-ring", "keyring"},
		{"config", "", empty, "from-config", "from-config", "config"},
		{"no keyring", "", nil, "from-config", "from-config", "config"},
		{"default", "", empty, "", "fallback", "default"},
		{"config equal to default", "", empty, "fallback", "fallback", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, from := ResolveToken(tc.env, tc.store, tc.configured, "fallback")
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.from, from)
		})
	}
}
