package refdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bext/internal/adapters/refdata"
	"go.trai.ch/bext/internal/core/domain"
)

func TestNew(t *testing.T) {
	table, err := refdata.New()
	require.NoError(t, err)
	require.NotEmpty(t, table.Releases())

	for _, release := range table.Releases() {
		assert.NotEmpty(t, release.Version)
		assert.NotEmpty(t, release.PythonVersion)
		assert.Equal(t, "cp311", release.PyTag)
		assert.NotEmpty(t, release.Platforms)
		assert.NotEmpty(t, release.Vendored)
	}
}

func TestTable_ReleaseByMinor(t *testing.T) {
	table, err := refdata.New()
	require.NoError(t, err)

	release, err := table.Release("4.2")
	require.NoError(t, err)
	assert.Equal(t, "4.2.8", release.Version)

	pin, ok := release.PinFor("numpy")
	require.True(t, ok)
	assert.Equal(t, "1.24.3", pin.Version)
}

func TestTable_ReleaseExact(t *testing.T) {
	table, err := refdata.New()
	require.NoError(t, err)

	release, err := table.Release("4.4.0")
	require.NoError(t, err)
	assert.Equal(t, "4.4.0", release.Version)
	assert.Equal(t, domain.OSVersion{Major: 12, Minor: 0}, release.MinMacOS)

	pin, ok := release.PinFor("numpy")
	require.True(t, ok)
	assert.Equal(t, "1.26.4", pin.Version)
}

func TestTable_ReleaseUnknown(t *testing.T) {
	table, err := refdata.New()
	require.NoError(t, err)

	_, err = table.Release("3.6")
	require.Error(t, err)
}

func TestTable_VendoredNamesNormalized(t *testing.T) {
	table, err := refdata.New()
	require.NoError(t, err)

	release, err := table.Release("4.2")
	require.NoError(t, err)

	_, ok := release.PinFor("charset-normalizer")
	assert.True(t, ok)
	_, ok = release.PinFor("Cython")
	assert.False(t, ok, "lookups are by normalized name")
	_, ok = release.PinFor("cython")
	assert.True(t, ok)
}
