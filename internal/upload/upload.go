package upload

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/storepro/pkg/common"
)

// AllowedExtensions lists the accepted image extensions, lower case without dot.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Allowed reports whether filename carries an accepted image extension.
func Allowed(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(filename[idx+1:])]
}

// SecureFilename strips directories and anything outside [A-Za-z0-9_.-].
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	return strings.Trim(name, "._")
}

// ImageStore keeps uploaded product images in a local directory.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// Save stores the uploaded image and returns its filename. Files that are
// not images are skipped silently: the returned name is empty and err is nil.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || !Allowed(fh.Filename) {
		return "", nil
	}
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", errors.Wrap(err, "detect upload type")
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		zap.L().Info("upload ignored, content is not an image",
			zap.String("filename", fh.Filename), zap.String("mime", mtype.String()))
		return "", nil
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewind upload")
	}

	name := SecureFilename(fh.Filename)
	if name == "" || !Allowed(name) {
		return "", nil
	}
	name = common.UUIDBase32() + "_" + name

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "write upload file")
	}
	return name, nil
}

// Remove deletes a previously stored image, missing files are ignored.
func (s *ImageStore) Remove(name string) {
	if name == "" {
		return
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		zap.L().Warn("remove product image failed", zap.String("name", name), zap.Error(err))
	}
}
