// Package fileutil はディスク上のプロジェクトとバイナリに埋め込まれたプロジェクトを
// 同じ方法で読むためのファイルシステムを提供する。
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// ErrNotFound はどの検索場所にもファイルがなかったことを示す
var ErrNotFound = errors.New("file not found")

// FileSystem はプロジェクトのアセットを読むためのインターフェース
// パスは "/" 区切りで、大文字小文字を区別しない
type FileSystem interface {
	// Open はファイルを開く
	Open(name string) (fs.File, error)
	// ReadFile はファイルの内容をすべて読み込む
	ReadFile(name string) ([]byte, error)
	// Exists はファイルが存在するかどうかを返す
	Exists(name string) bool
	// Describe はログ用にファイルシステムの場所を返す
	Describe() string
}

// AssetFS は fs.FS の上に大文字小文字を無視したパス解決を載せた FileSystem
type AssetFS struct {
	fsys     fs.FS
	root     string
	embedded bool
}

// NewDirFS はディスク上のディレクトリをルートとする FileSystem を作成する
func NewDirFS(dir string) *AssetFS {
	return &AssetFS{fsys: os.DirFS(dir), root: dir}
}

// NewEmbedFS は埋め込みファイルシステムの sub ディレクトリをルートとする FileSystem を作成する
func NewEmbedFS(fsys fs.FS, sub string) (*AssetFS, error) {
	sub = cleanPath(sub)
	if sub != "." {
		var err error
		fsys, err = fs.Sub(fsys, sub)
		if err != nil {
			return nil, fmt.Errorf("embedded directory %s: %w", sub, err)
		}
	}
	return &AssetFS{fsys: fsys, root: "embed:" + sub, embedded: true}, nil
}

// IsEmbedded は埋め込みファイルシステムかどうかを返す
func (a *AssetFS) IsEmbedded() bool {
	return a.embedded
}

// Describe implements FileSystem.
func (a *AssetFS) Describe() string {
	return a.root
}

// Open implements FileSystem.
func (a *AssetFS) Open(name string) (fs.File, error) {
	actual, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}
	return a.fsys.Open(actual)
}

// ReadFile implements FileSystem.
func (a *AssetFS) ReadFile(name string) ([]byte, error) {
	actual, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(a.fsys, actual)
}

// Exists implements FileSystem.
func (a *AssetFS) Exists(name string) bool {
	_, err := a.Resolve(name)
	return err == nil
}

// Resolve は name を実際のパスに変換する
// まずそのままのパスを試し、なければ各要素を大文字小文字を無視して探す
func (a *AssetFS) Resolve(name string) (string, error) {
	clean := cleanPath(name)
	if _, err := fs.Stat(a.fsys, clean); err == nil {
		return clean, nil
	}
	if clean == "." {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, a.root)
	}

	dir := "."
	for _, part := range strings.Split(clean, "/") {
		entries, err := fs.ReadDir(a.fsys, dir)
		if err != nil {
			return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, a.root)
		}
		found := ""
		for _, e := range entries {
			if strings.EqualFold(e.Name(), part) {
				found = e.Name()
				break
			}
		}
		if found == "" {
			return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, a.root)
		}
		dir = path.Join(dir, found)
	}
	return dir, nil
}

// cleanPath は Windows 形式の区切りや先頭の "/" を取り除く
func cleanPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}
