package derive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTariffs(t *testing.T) {
	tt := DefaultTariffs()
	require.Len(t, tt.All(), 27)

	r, ok := tt.ByLabel("Régie")
	require.True(t, ok)
	assert.Equal(t, "500-A", r.Code)
	assert.Equal(t, 55.0, r.Price)

	r, ok = tt.ByLabel("  tirage   SOUTERRAIN 0 à 288 ")
	require.True(t, ok)
	assert.Equal(t, "205-A", r.Code)

	r, ok = tt.ByCode("500-b")
	require.True(t, ok)
	assert.Equal(t, "Aiguillage", r.Label)
	assert.Equal(t, 0.4, r.Price)

	_, ok = tt.ByCode("999-Z")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	tt := DefaultTariffs()
	all := tt.All()
	all[0].Price = -1
	again, _ := tt.ByCode(all[0].Code)
	assert.NotEqual(t, -1.0, again.Price)
}

func TestParseTariffs_Errors(t *testing.T) {
	_, err := ParseTariffs([]byte("tariffs: ["))
	assert.Error(t, err)

	_, err = ParseTariffs([]byte("tariffs: []"))
	assert.ErrorContains(t, err, "validation")

	_, err = ParseTariffs([]byte("tariffs:\n  - {code: A, label: x, price: -1}\n"))
	assert.ErrorContains(t, err, "validation")

	_, err = ParseTariffs([]byte("tariffs:\n  - {code: A, label: x, price: 1}\n  - {code: a, label: y, price: 2}\n"))
	assert.ErrorContains(t, err, "duplicate tariff code")

	_, err = ParseTariffs([]byte("tariffs:\n  - {code: A, label: x, price: 1}\n  - {code: B, label: X, price: 2}\n"))
	assert.ErrorContains(t, err, "duplicate tariff label")
}

func TestLoadTariffs(t *testing.T) {
	tt, err := LoadTariffs("")
	require.NoError(t, err)
	assert.Len(t, tt.All(), 27)

	p := filepath.Join(t.TempDir(), "t.yaml")
	require.NoError(t, os.WriteFile(p, []byte("tariffs:\n  - {code: X-1, label: Custom, price: 12.5}\n"), 0o600))
	tt, err = LoadTariffs(p)
	require.NoError(t, err)
	r, ok := tt.ByLabel("custom")
	require.True(t, ok)
	assert.Equal(t, 12.5, r.Price)

	_, err = LoadTariffs(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
