// Package stage はスクリプトから操作される画面上の状態（ピクチャーとメッセージボックス）を管理する。
// 描画はしないので、ヘッドレス実行とテストでもそのまま使える。
package stage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // PNG デコーダを登録
	"log/slog"
	"path"
	"sort"
	"sync"

	_ "golang.org/x/image/bmp" // BMP デコーダを登録

	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/logger"
)

// MaxPictures はピクチャー番号の上限
const MaxPictures = 256

// Picture は表示中のピクチャー
type Picture struct {
	Number int
	Name   string
	X, Y   int
	Image  image.Image
}

// Pictures は番号付きのピクチャーを管理する
type Pictures struct {
	fsys     fileutil.FileSystem
	dirs     []string
	pictures map[int]*Picture
	cache    map[string]image.Image
	log      *slog.Logger
	mu       sync.RWMutex
}

// PicturesOption は Pictures の設定を変更するオプション
type PicturesOption func(*Pictures)

// WithPictureDirs は画像を探すディレクトリを設定する
func WithPictureDirs(dirs ...string) PicturesOption {
	return func(p *Pictures) {
		p.dirs = dirs
	}
}

// WithPicturesLogger はロガーを設定する
func WithPicturesLogger(log *slog.Logger) PicturesOption {
	return func(p *Pictures) {
		p.log = log
	}
}

// NewPictures は fsys から画像を読み込む Pictures を作成する
func NewPictures(fsys fileutil.FileSystem, opts ...PicturesOption) *Pictures {
	p := &Pictures{
		fsys:     fsys,
		dirs:     []string{"pictures", "."},
		pictures: make(map[int]*Picture),
		cache:    make(map[string]image.Image),
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShowPicture は画像を読み込んで number 番に表示する
// 同じ番号のピクチャーは置き換えられる
func (p *Pictures) ShowPicture(number int, name string, x, y int) error {
	if number < 0 || number >= MaxPictures {
		return fmt.Errorf("picture number out of range: %d", number)
	}
	img, err := p.load(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.pictures[number] = &Picture{Number: number, Name: name, X: x, Y: y, Image: img}
	p.mu.Unlock()

	p.log.Debug("ShowPicture", "number", number, "name", name, "x", x, "y", y)
	return nil
}

// ErasePicture は number 番のピクチャーを消す
func (p *Pictures) ErasePicture(number int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pictures, number)
}

// Picture は number 番のピクチャーを返す
func (p *Pictures) Picture(number int) (*Picture, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pic, ok := p.pictures[number]
	return pic, ok
}

// Each は番号の小さい順にピクチャーを渡す（描画順）
func (p *Pictures) Each(fn func(*Picture)) {
	p.mu.RLock()
	list := make([]*Picture, 0, len(p.pictures))
	for _, pic := range p.pictures {
		list = append(list, pic)
	}
	p.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	for _, pic := range list {
		fn(pic)
	}
}

// Clear はすべてのピクチャーを消す
func (p *Pictures) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pictures = make(map[int]*Picture)
}

// load は画像を読み込む。一度読んだ画像はキャッシュする
// 拡張子がなければ .png, .bmp の順に探す
func (p *Pictures) load(name string) (image.Image, error) {
	p.mu.RLock()
	img, ok := p.cache[name]
	p.mu.RUnlock()
	if ok {
		return img, nil
	}

	candidates := []string{name}
	if path.Ext(name) == "" {
		candidates = []string{name + ".png", name + ".bmp"}
	}

	var loc fileutil.Location
	var err error
	for _, c := range candidates {
		loc, err = fileutil.Search([]fileutil.FileSystem{p.fsys}, p.dirs, c)
		if err == nil {
			break
		}
	}
	if err != nil {
		p.log.Error("ShowPicture: file not found", "name", name, "dirs", p.dirs)
		return nil, fmt.Errorf("picture %s: %w", name, err)
	}

	data, err := loc.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read picture %s: %w", loc.Path, err)
	}
	img, err = decodeImage(data)
	if err != nil {
		p.log.Error("ShowPicture: failed to decode image", "name", name, "error", err)
		return nil, fmt.Errorf("failed to decode picture %s: %w", loc.Path, err)
	}

	p.mu.Lock()
	p.cache[name] = img
	p.mu.Unlock()
	return img, nil
}

// decodeImage は PNG と BMP（RLE 圧縮を含む）をデコードする
func decodeImage(data []byte) (image.Image, error) {
	if isRLEBitmap(data) {
		return decodeRLEBitmap(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
