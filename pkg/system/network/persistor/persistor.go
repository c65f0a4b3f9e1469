package network_persistor

import (
	"errors"
	"io/fs"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/jsondb"
	"github.com/dogeorg/dogewifi/pkg/metrics"
	"github.com/sirupsen/logrus"
)

var _ dogewifi.CredentialCache = &CredentialCache{}

/* CredentialCache remembers the last successful wireless connection.
 *
 * It holds a single entry: Save replaces whatever was there and Get
 * only answers for the ESSID that was saved last. Key material is
 * stored in clear text, the file is created 0600.
 */
type CredentialCache struct {
	log  logrus.FieldLogger
	file *jsondb.JSONFile[dogewifi.CacheEntry]
}

func NewCredentialCache(log logrus.FieldLogger, path string) *CredentialCache {
	return &CredentialCache{
		log:  log.WithField("component", "cache"),
		file: jsondb.NewJSONFile[dogewifi.CacheEntry](path, 0600),
	}
}

func (c *CredentialCache) Save(essid string, encryption dogewifi.Encryption, secret string, conf string) error {
	entry := dogewifi.CacheEntry{
		ESSID:      essid,
		Encryption: encryption,
		Secret:     secret,
	}
	if conf != "" {
		entry.Conf = &conf
	}

	if err := c.file.Save(entry); err != nil {
		return err
	}
	metrics.IncCacheWrite("save")
	c.log.WithField("essid", essid).Info("Cached wireless credentials")
	return nil
}

// Get returns nil when nothing is cached or the cached ESSID differs.
func (c *CredentialCache) Get(essid string) (*dogewifi.CacheEntry, error) {
	entry, err := c.GetLatest()
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.ESSID != essid {
		return nil, nil
	}
	return entry, nil
}

func (c *CredentialCache) GetLatest() (*dogewifi.CacheEntry, error) {
	entry, err := c.file.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Empty deletes the cache file. It is false when there was nothing to delete.
func (c *CredentialCache) Empty() bool {
	removed, err := c.file.Remove()
	if err != nil {
		c.log.WithError(err).Warn("Failed to empty credential cache")
		return false
	}
	if removed {
		metrics.IncCacheWrite("empty")
	}
	return removed
}
