// Package imagestore writes downloaded chat images to a local directory and
// reads them back by filename for outbound sends. Files are write-once; the
// backend references them by the name returned from Save.
package imagestore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	pkgError "github.com/modsentry/modsentry/pkg/error"
	"github.com/sirupsen/logrus"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save stores image bytes under img_<unixms>_<senderID>.jpg. Decodable
// payloads are re-encoded as JPEG so the stored file matches its extension;
// bytes that fail to decode are written verbatim.
func (s *Store) Save(senderID string, data []byte) (string, error) {
	name := fmt.Sprintf("img_%d_%s.jpg", time.Now().UnixMilli(), sanitizeID(senderID))

	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err == nil {
			data = buf.Bytes()
		}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", name, err)
	}

	logrus.Debugf("[IMAGESTORE] stored %s (%s)", name, humanize.Bytes(uint64(len(data))))
	return name, nil
}

// Read returns the bytes of a previously stored image. The name is reduced
// to its base so backend-supplied paths cannot escape the store directory.
func (s *Store) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return nil, pkgError.NotFoundError(fmt.Sprintf("image %s not found", name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", name, err)
	}
	return data, nil
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, id)
}
