package app

import (
	"io/fs"
	"path/filepath"

	"github.com/zurustar/vnplay/pkg/audio"
	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/title"
)

// findSoundFont は SoundFont を次の優先順位で探す
//  1. コマンドラインで指定されたファイル
//  2. 埋め込みの soundfonts ディレクトリ
//  3. タイトルのディレクトリ（soundfonts/ または直下）
//  4. カレントディレクトリ
//
// ファイル名はプロジェクトの soundFont 指定、なければ audio.DefaultSoundFontName
func findSoundFont(embedFS fs.FS, t *title.Title, override string) (fileutil.Location, error) {
	if override != "" {
		dir := fileutil.NewDirFS(filepath.Dir(override))
		return audio.FindSoundFont([]fileutil.FileSystem{dir}, filepath.Base(override))
	}

	var filesystems []fileutil.FileSystem
	if embedFS != nil {
		if root, err := fileutil.NewEmbedFS(embedFS, "."); err == nil {
			filesystems = append(filesystems, root)
		}
	}
	name := ""
	if t != nil {
		if t.FS != nil {
			filesystems = append(filesystems, t.FS)
		}
		if t.Project != nil {
			name = t.Project.SoundFont
		}
	}
	filesystems = append(filesystems, fileutil.NewDirFS("."))

	return audio.FindSoundFont(filesystems, name)
}
