// Package title はバイナリに埋め込まれたプロジェクトと外部ディレクトリの
// プロジェクトを一覧し、起動するものを選ぶ。
package title

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/logger"
	"github.com/zurustar/vnplay/pkg/scene"
)

// EmbeddedRoot は埋め込みファイルシステム内でプロジェクトを置くディレクトリ
const EmbeddedRoot = "titles"

// Title は起動できるプロジェクトを表す
type Title struct {
	Name       string            // ディレクトリ名
	Path       string            // 埋め込みの場合は仮想パス
	IsEmbedded bool              // 埋め込まれたプロジェクトかどうか
	Project    *scene.Project    // project.yaml の内容
	FS         *fileutil.AssetFS // プロジェクトのルート
}

// DisplayName はタイトルの表示名を返す
// project.yaml に title があればそれを、なければディレクトリ名を返す
func (t *Title) DisplayName() string {
	if t.Project != nil && t.Project.Title != "" {
		return t.Project.Title
	}
	return t.Name
}

// Registry は起動できるプロジェクトの一覧を管理する
type Registry struct {
	embedded []Title // 埋め込まれたプロジェクト
	external *Title  // コマンドラインで指定されたプロジェクト
	log      *slog.Logger
}

// Option は Registry の設定を変更するオプション
type Option func(*Registry)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry は embedFS の titles ディレクトリからプロジェクトを検出して Registry を作成する
// embedFS が nil の場合は埋め込みプロジェクトなし
func NewRegistry(embedFS fs.FS, opts ...Option) *Registry {
	r := &Registry{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if embedFS != nil {
		r.loadEmbedded(embedFS)
	}
	return r
}

// loadEmbedded は titles 以下の各ディレクトリを読み込む
// project.yaml がない、または壊れているディレクトリは警告を出して飛ばす
func (r *Registry) loadEmbedded(embedFS fs.FS) {
	entries, err := fs.ReadDir(embedFS, EmbeddedRoot)
	if err != nil {
		// titles ディレクトリがなければ何もしない
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := path.Join(EmbeddedRoot, entry.Name())
		assets, err := fileutil.NewEmbedFS(embedFS, dir)
		if err != nil {
			r.log.Warn("Skipping embedded title", "dir", dir, "error", err)
			continue
		}
		project, err := scene.LoadProject(assets, scene.ProjectFileName)
		if err != nil {
			r.log.Warn("Skipping embedded title", "dir", dir, "error", err)
			continue
		}
		r.embedded = append(r.embedded, Title{
			Name:       entry.Name(),
			Path:       dir,
			IsEmbedded: true,
			Project:    project,
			FS:         assets,
		})
	}
	sort.Slice(r.embedded, func(i, j int) bool {
		return r.embedded[i].Name < r.embedded[j].Name
	})
}

// LoadExternal は外部ディレクトリのプロジェクトを読み込む
func (r *Registry) LoadExternal(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("project directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to access project directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path is not a directory: %s", dir)
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	assets := fileutil.NewDirFS(absPath)
	project, err := scene.LoadProject(assets, scene.ProjectFileName)
	if err != nil {
		return err
	}

	r.external = &Title{
		Name:    filepath.Base(absPath),
		Path:    absPath,
		Project: project,
		FS:      assets,
	}
	return nil
}

// Available は利用できるプロジェクトの一覧を返す
// 外部プロジェクトが指定されている場合はそれだけを返す
func (r *Registry) Available() []Title {
	if r.external != nil {
		return []Title{*r.external}
	}
	return append([]Title(nil), r.embedded...)
}

// Select は起動するプロジェクトを選ぶ（1 つだけなら自動選択）
// 戻り値: (選択されたプロジェクト, 選択画面が必要か, エラー)
func (r *Registry) Select() (*Title, bool, error) {
	titles := r.Available()

	switch len(titles) {
	case 0:
		return nil, false, fmt.Errorf("no projects available")
	case 1:
		return &titles[0], false, nil
	default:
		return nil, true, nil
	}
}
