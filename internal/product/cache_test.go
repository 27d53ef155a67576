package product

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameCache_CachesWithinTTL(t *testing.T) {
	c := newNameCache(5 * time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"Asado", "Vacio"}, nil
	}

	first, err := c.get(fetch)
	require.NoError(t, err)
	second, err := c.get(fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestNameCache_ExpiresAfterTTL(t *testing.T) {
	c := newNameCache(5 * time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"Asado"}, nil
	}

	_, err := c.get(fetch)
	require.NoError(t, err)

	now = now.Add(5*time.Minute + time.Second)
	_, err = c.get(fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestNameCache_InvalidateForcesRefresh(t *testing.T) {
	c := newNameCache(5 * time.Minute)

	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"Asado"}, nil
	}

	_, _ = c.get(fetch)
	c.invalidate()
	_, _ = c.get(fetch)

	assert.Equal(t, 2, calls)
}

func TestNameCache_FetchErrorNotCached(t *testing.T) {
	c := newNameCache(time.Minute)

	_, err := c.get(func() ([]string, error) {
		return nil, errors.New("db down")
	})
	assert.Error(t, err)

	names, err := c.get(func() ([]string, error) {
		return []string{"Asado"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asado"}, names)
}

func TestFilterNames(t *testing.T) {
	names := []string{"Asado", "Vacio", "Milanesa de pollo", "Pollo entero"}

	assert.Equal(t, []string{"Milanesa de pollo", "Pollo entero"}, filterNames(names, "pollo"))
	assert.Equal(t, []string{"Asado"}, filterNames(names, "ASA"))
	assert.Empty(t, filterNames(names, "cordero"))
}
