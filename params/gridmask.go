package params

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

const (
	MaskDBName    = "masks.db"
	MasksBucket   = "masks"
	MaskCacheSize = 128
)

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".gridmask")
	}
	return filepath.Join(home, ".gridmask")
}()

var DefaultGZipCompressionLevel = gzip.BestCompression

var (
	CacheResponseTTL = 1 * time.Hour
)

// InfluxDB export is optional and entirely env-configured.
// An empty INFLUXDB_URL disables it.
var (
	INFLUXDB_URL    = os.Getenv("INFLUXDB_URL")
	INFLUXDB_TOKEN  = os.Getenv("INFLUXDB_TOKEN")
	INFLUXDB_ORG    = os.Getenv("INFLUXDB_ORG")
	INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
)
