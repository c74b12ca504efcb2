package fileutil

import (
	"fmt"
	"path"
)

// Location は検索で見つかったファイルの場所
type Location struct {
	FS   FileSystem
	Path string
}

// ReadFile は見つかったファイルの内容を読み込む
func (l Location) ReadFile() ([]byte, error) {
	return l.FS.ReadFile(l.Path)
}

// Search は filesystems を順に、それぞれ dirs の各ディレクトリについて name を探す
// 最初に見つかった場所を返す
func Search(filesystems []FileSystem, dirs []string, name string) (Location, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, fsys := range filesystems {
		if fsys == nil {
			continue
		}
		for _, dir := range dirs {
			p := path.Join(dir, name)
			if fsys.Exists(p) {
				return Location{FS: fsys, Path: p}, nil
			}
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}
