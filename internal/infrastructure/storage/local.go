package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 文件分类目录
const (
	CategoryAvatars  = "avatars"
	CategoryPayments = "payments"
)

// BlobStore 文件存储，返回可访问的相对路径
type BlobStore interface {
	Save(category, filename string, r io.Reader) (string, error)
	Remove(relPath string) error
	URL(relPath string) string
}

// LocalStore 本地磁盘存储，文件按 <category>/<YYYY>/<MM>/<uuid><ext> 保存
type LocalStore struct {
	Root      string
	URLPrefix string
	now       func() time.Time
}

// NewLocalStore 创建本地存储
func NewLocalStore(root, urlPrefix string) *LocalStore {
	return &LocalStore{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/"), now: time.Now}
}

// Save 保存上传文件并返回相对路径
func (s *LocalStore) Save(category, filename string, r io.Reader) (string, error) {
	now := s.now()
	ext := strings.ToLower(filepath.Ext(filename))
	rel := path.Join(category, now.Format("2006"), now.Format("01"), uuid.NewString()+ext)

	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return rel, nil
}

// Remove 删除文件，文件不存在时不报错
func (s *LocalStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := path.Clean("/" + relPath)
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL 返回文件的访问地址
func (s *LocalStore) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.URLPrefix + "/" + relPath
}
