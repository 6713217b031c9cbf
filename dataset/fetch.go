package dataset

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gopherml/goinspect/pkg/errors"
	"github.com/gopherml/goinspect/pkg/log"
)

var fetchClient = &http.Client{Timeout: 2 * time.Minute}

// fetchCached downloads url into dataHome/filename unless the cache file
// already exists, and returns the cached path. The download is written to a
// temporary file and renamed so a failed fetch never leaves a truncated
// cache behind.
func fetchCached(url, dataHome, filename string, logger log.Logger) (string, error) {
	path := filepath.Join(dataHome, filename)
	if _, err := os.Stat(path); err == nil {
		logger.Debug("using cached dataset", "path", path)
		return path, nil
	}

	if err := os.MkdirAll(dataHome, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating data home %s", dataHome)
	}

	logger.Info("downloading dataset", "url", url, "path", path)
	resp, err := fetchClient.Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "fetching %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("fetching %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(dataHome, filename+".tmp*")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", errors.Wrapf(err, "writing %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", errors.Wrapf(err, "closing %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", errors.Wrapf(err, "renaming %s", tmpName)
	}
	return path, nil
}
