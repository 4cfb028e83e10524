package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafePath 目标路径越出存储根目录
var ErrUnsafePath = errors.New("非法的文件路径")

// LocalStore 本地磁盘文件存储，对外暴露 baseURL 前缀下的访问地址
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore 创建本地存储，root 不存在时自动创建
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("解析存储目录失败: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root 存储根目录
func (s *LocalStore) Root() string { return s.root }

// Save 写入文件并返回访问 URL；先写临时文件再 rename，读方不会看到半截文件
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("关闭文件失败: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	return s.baseURL + "/" + path.Clean(filepath.ToSlash(name)), nil
}

// Exists 文件是否存在
func (s *LocalStore) Exists(name string) bool {
	target, err := s.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(target)
	return err == nil
}

func (s *LocalStore) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", ErrUnsafePath
	}
	target := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrUnsafePath
	}
	return target, nil
}
