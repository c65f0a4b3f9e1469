package network_persistor

import (
	"os"
	"path/filepath"
	"testing"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*CredentialCache, string) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	path := filepath.Join(t.TempDir(), "wifi_cache")
	return NewCredentialCache(log, path), path
}

func TestSaveAndGet(t *testing.T) {
	cache, _ := newCache(t)

	require.NoError(t, cache.Save("HomeNet", dogewifi.EncryptionWPA, "correct horse", ""))

	entry, err := cache.Get("HomeNet")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, dogewifi.CacheEntry{
		ESSID:      "HomeNet",
		Encryption: dogewifi.EncryptionWPA,
		Secret:     "correct horse",
	}, *entry)

	other, err := cache.Get("CoffeeShop")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSaveReplacesEntry(t *testing.T) {
	cache, _ := newCache(t)

	require.NoError(t, cache.Save("HomeNet", dogewifi.EncryptionWPA, "correct horse", ""))
	require.NoError(t, cache.Save("CoffeeShop", dogewifi.EncryptionOff, "", "/etc/custom.conf"))

	old, err := cache.Get("HomeNet")
	require.NoError(t, err)
	assert.Nil(t, old)

	latest, err := cache.GetLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "CoffeeShop", latest.ESSID)
	require.NotNil(t, latest.Conf)
	assert.Equal(t, "/etc/custom.conf", *latest.Conf)
}

func TestFileFormat(t *testing.T) {
	cache, path := newCache(t)

	require.NoError(t, cache.Save("HomeNet", dogewifi.EncryptionWEP, "abcde", ""))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
    "conf": null,
    "enckey": "abcde",
    "encryption": "wep",
    "essid": "HomeNet"
}
`, string(data))
}

func TestFileFormatEscaping(t *testing.T) {
	cache, path := newCache(t)

	require.NoError(t, cache.Save("Tom&Jerry Café", dogewifi.EncryptionOff, "", ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
    "conf": null,
    "enckey": "",
    "encryption": "off",
    "essid": "Tom&Jerry Caf\u00e9"
}
`, string(data))

	entry, err := cache.GetLatest()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Tom&Jerry Café", entry.ESSID)
}

func TestEmpty(t *testing.T) {
	cache, path := newCache(t)

	assert.False(t, cache.Empty())

	require.NoError(t, cache.Save("HomeNet", dogewifi.EncryptionOff, "", ""))
	assert.True(t, cache.Empty())
	assert.NoFileExists(t, path)

	latest, err := cache.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestCorruptCache(t *testing.T) {
	cache, path := newCache(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := cache.GetLatest()
	assert.Error(t, err)
}
