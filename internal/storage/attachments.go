package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"catalog/internal/models"
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

var allowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
}

type Options struct {
	Dir       string
	URLPrefix string
	BaseURL   string
	MaxBytes  int64
}

// Attachments writes uploaded images under Dir and hands out references of the
// form <base URL><URLPrefix>/<filename>.
type Attachments struct {
	dir       string
	urlPrefix string
	baseURL   string
	maxBytes  int64
	log       *zap.Logger
	now       func() time.Time
}

func NewAttachments(opts Options, log *zap.Logger) (*Attachments, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	prefix := "/" + strings.Trim(opts.URLPrefix, "/")
	return &Attachments{
		dir:       dir,
		urlPrefix: prefix,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		maxBytes:  opts.MaxBytes,
		log:       log,
		now:       time.Now,
	}, nil
}

func (a *Attachments) Dir() string       { return a.dir }
func (a *Attachments) URLPrefix() string { return a.urlPrefix }
func (a *Attachments) MaxBytes() int64   { return a.maxBytes }

// BaseURL returns the configured base URL, or scheme://host of r.
func (a *Attachments) BaseURL(r *http.Request) string {
	if a.baseURL != "" {
		return a.baseURL
	}
	if r == nil || r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}

// Validate checks a file without writing it.
func (a *Attachments) Validate(file *multipart.FileHeader) error {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedExtensions[extension]; !ok {
		return models.Validationf("Only image files are allowed! (%s)", file.Filename)
	}

	declared := strings.ToLower(strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0]))
	if _, ok := allowedMIMETypes[declared]; !ok {
		return models.Validationf("Only image files are allowed! (%s)", file.Filename)
	}

	if file.Size > a.maxBytes {
		return models.Validationf("Image %s exceeds the %d MB limit", file.Filename, a.maxBytes>>20)
	}

	in, err := file.Open()
	if err != nil {
		return models.Unexpected("Error reading upload", err)
	}
	defer in.Close()

	detected, err := mimetype.DetectReader(in)
	if err != nil {
		return models.Unexpected("Error reading upload", err)
	}
	if _, ok := allowedMIMETypes[detected.String()]; !ok {
		return models.Validationf("Only image files are allowed! (%s is %s)", file.Filename, detected.String())
	}
	return nil
}

// Store validates every file before writing any of them, then writes the
// batch. On a write failure the files already written are removed.
func (a *Attachments) Store(ctx context.Context, files []*multipart.FileHeader, baseURL string) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	for _, file := range files {
		if err := a.Validate(file); err != nil {
			return nil, err
		}
	}

	refs := make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			a.ReclaimAll(refs)
			return nil, models.Unexpected("Upload cancelled", err)
		}
		ref, err := a.save(file, baseURL)
		if err != nil {
			a.ReclaimAll(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (a *Attachments) save(file *multipart.FileHeader, baseURL string) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	filename := a.newFilename(extension)
	fullPath := filepath.Join(a.dir, filename)

	out, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		a.log.Error("create upload failed", zap.String("path", fullPath), zap.Error(err))
		return "", models.Unexpected("Error saving image", err)
	}

	in, err := file.Open()
	if err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		return "", models.Unexpected("Error saving image", err)
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		a.log.Error("write upload failed", zap.String("path", fullPath), zap.Error(err))
		return "", models.Unexpected("Error saving image", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", models.Unexpected("Error saving image", err)
	}

	a.log.Debug("upload stored", zap.String("file", filename), zap.String("upload", file.Filename), zap.Int64("size", file.Size))
	return strings.TrimRight(baseURL, "/") + a.urlPrefix + "/" + filename, nil
}

func (a *Attachments) newFilename(extension string) string {
	return fmt.Sprintf("product-%d-%s%s", a.now().UnixMilli(), ksuid.New().String(), extension)
}

// Reclaim deletes the file behind ref. A missing file is not an error.
func (a *Attachments) Reclaim(ref string) error {
	target, err := a.resolve(ref)
	if err != nil {
		return err
	}
	if target == "" {
		return nil
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReclaimAll removes refs one by one, logging failures.
func (a *Attachments) ReclaimAll(refs []string) {
	for _, ref := range refs {
		if err := a.Reclaim(ref); err != nil {
			a.log.Warn("image reclaim failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// resolve maps an absolute URL or relative path to a file under the upload dir.
func (a *Attachments) resolve(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", nil
	}

	relPath := trimmed
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
		}
		relPath = parsed.Path
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(relPath, "/"))
	if cleanRel != a.urlPrefix && !strings.HasPrefix(cleanRel, a.urlPrefix+"/") {
		return "", fmt.Errorf("refusing to delete non-upload path: %s", ref)
	}
	name := strings.TrimPrefix(strings.TrimPrefix(cleanRel, a.urlPrefix), "/")
	if name == "" {
		return "", fmt.Errorf("refusing to delete upload root: %s", ref)
	}

	target := filepath.Clean(filepath.Join(a.dir, filepath.FromSlash(name)))
	if !strings.HasPrefix(target, a.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing to delete path outside upload root: %s", ref)
	}
	return target, nil
}
