package window

import (
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/scene"
)

// defaultFace はフォント指定がないときのフォント
var defaultFace = text.NewGoXFace(basicfont.Face7x13)

// LoadFace はプロジェクトのフォント設定からフォントフェイスを作る
// 指定がない、または読み込めない場合はデフォルトフォントを返す
func LoadFace(fsys fileutil.FileSystem, cfg *scene.Font, log *slog.Logger) text.Face {
	if cfg == nil || fsys == nil {
		return defaultFace
	}
	data, err := fsys.ReadFile(cfg.File)
	if err != nil {
		log.Warn("Failed to read font, using default", "file", cfg.File, "error", err)
		return defaultFace
	}
	face, err := parseFace(data, cfg.Size)
	if err != nil {
		log.Warn("Failed to load font, using default", "file", cfg.File, "error", err)
		return defaultFace
	}
	return text.NewGoXFace(face)
}

// parseFace は TrueType/OpenType フォント（.ttc はその最初のフォント）を読み込む
func parseFace(data []byte, size float64) (font.Face, error) {
	// 単一フォントとして解析を試みる
	tt, err := opentype.Parse(data)
	if err != nil {
		// フォントコレクション（.ttc）として解析を試みる
		collection, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		if collection.NumFonts() == 0 {
			return nil, fmt.Errorf("font collection is empty")
		}
		tt, err = collection.Font(0)
		if err != nil {
			return nil, fmt.Errorf("failed to get font from collection: %w", err)
		}
	}

	face, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
