package tenant

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Run("valid_mapping", func(t *testing.T) {
		reg, err := ParseJSON([]byte(`{
			"example.com": {"bucket": "b1", "token": "t1"},
			"other.org":   {"bucket": "b2", "token": "t2"}
		}`))
		require.NoError(t, err)
		assert.Equal(t, 2, reg.Len())

		e, ok := reg.Lookup("example.com")
		require.True(t, ok)
		assert.Equal(t, "example.com", e.TenantID)
		assert.Equal(t, "b1", e.Bucket)
		assert.Equal(t, "t1", e.Token)

		_, ok = reg.Lookup("missing.com")
		assert.False(t, ok)
	})

	t.Run("missing_bucket_loads", func(t *testing.T) {
		reg, err := ParseJSON([]byte(`{"example.com": {"token": "t1"}}`))
		require.NoError(t, err)
		e, ok := reg.Lookup("example.com")
		require.True(t, ok)
		assert.Empty(t, e.Bucket)
	})

	t.Run("duplicate_host_rejected", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{
			"example.com": {"bucket": "b1", "token": "t1"},
			"example.com": {"bucket": "b2", "token": "t2"}
		}`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateTenant))
	})

	t.Run("empty_host_rejected", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"": {"bucket": "b1", "token": "t1"}}`))
		assert.ErrorIs(t, err, ErrEmptyTenantID)
	})

	bad := map[string]string{
		"not_json":      `not json`,
		"array":         `[{"bucket": "b1"}]`,
		"string_entry":  `{"example.com": "b1"}`,
		"truncated":     `{"example.com": {"bucket": "b1"`,
		"trailing_data": `{"example.com": {"bucket": "b1", "token": "t"}} {}`,
	}
	for name, in := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestParseYAML(t *testing.T) {
	t.Run("valid_mapping", func(t *testing.T) {
		reg, err := ParseYAML([]byte(`
tenants:
  example.com:
    bucket: b1
    token: t1
  other.org:
    bucket: b2
    token: t2
`))
		require.NoError(t, err)
		assert.Equal(t, 2, reg.Len())
		assert.Equal(t, []string{"b1", "b2"}, reg.Buckets())
	})

	t.Run("duplicate_host_rejected", func(t *testing.T) {
		_, err := ParseYAML([]byte(`
tenants:
  example.com:
    bucket: b1
    token: t1
  example.com:
    bucket: b2
    token: t2
`))
		assert.Error(t, err)
	})

	t.Run("missing_tenants_key", func(t *testing.T) {
		_, err := ParseYAML([]byte("domains: {}\n"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("nothing_configured", func(t *testing.T) {
		_, err := Load("", "")
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "ALLOWED_DOMAINS", le.Source)
	})

	t.Run("unparsable_env_value", func(t *testing.T) {
		_, err := Load("{oops", "")
		var le *LoadError
		assert.ErrorAs(t, err, &le)
	})

	t.Run("file_takes_precedence", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tenants.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tenants:\n  a.com: {bucket: ba, token: ta}\n"), 0o600))

		reg, err := Load(`{"b.com": {"bucket": "bb", "token": "tb"}}`, path)
		require.NoError(t, err)
		_, ok := reg.Lookup("a.com")
		assert.True(t, ok)
		_, ok = reg.Lookup("b.com")
		assert.False(t, ok)
	})

	t.Run("json_file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tenants.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"a.com": {"bucket": "ba", "token": "ta"}}`), 0o600))

		reg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		var le *LoadError
		assert.ErrorAs(t, err, &le)
	})
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	reg, err := ParseJSON([]byte(`{"example.com": {"bucket": "b1", "token": "t1"}}`))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, ok := reg.Lookup("example.com")
			assert.True(t, ok)
			assert.Equal(t, "b1", e.Bucket)
		}()
	}
	wg.Wait()
}
