package window

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/zurustar/vnplay/pkg/stage"
)

// メッセージウィンドウの配置
const (
	messageMargin  = 16
	messagePadding = 12
)

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	switch g.mode {
	case ModeSelection:
		g.drawSelection(screen)
	case ModePlaying:
		g.drawPlaying(screen)
	}
}

// drawSelection タイトル選択画面の描画
func (g *Game) drawSelection(screen *ebiten.Image) {
	g.drawText(screen, "Select a project", 40, 40, textColor)

	for i, t := range g.titles {
		prefix := "  "
		var clr color.Color = textColor
		if i == g.selectedIndex {
			prefix = "> "
			clr = selectedTextColor
		}
		g.drawText(screen, prefix+t.DisplayName(), 60, 100+float64(i*32), clr)
	}

	g.drawText(screen, "UP/DOWN to select, ENTER to start, ESC to exit", 40, float64(g.height-40), textColor)
}

// drawPlaying はピクチャー、メッセージウィンドウ、ステータスの順に描く
func (g *Game) drawPlaying(screen *ebiten.Image) {
	if g.session == nil {
		return
	}

	g.session.Pictures().Each(func(p *stage.Picture) {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(p.X), float64(p.Y))
		screen.DrawImage(g.imageFor(p.Image), op)
	})

	if req, ok := g.session.Messages().Current(); ok {
		g.drawMessage(screen, req)
	}

	if g.statusAge > 0 {
		g.drawText(screen, g.status, 8, 8, selectedTextColor)
	}
}

// imageFor はピクチャーの GPU 画像を返す。同じ画像は一度だけ転送する
func (g *Game) imageFor(img image.Image) *ebiten.Image {
	if eimg, ok := g.images[img]; ok {
		return eimg
	}
	eimg := ebiten.NewImageFromImage(img)
	g.images[img] = eimg
	return eimg
}

// drawMessage は画面下部にメッセージウィンドウを描く
func (g *Game) drawMessage(screen *ebiten.Image, req stage.Request) {
	lineHeight := g.lineHeight()
	lines := g.messageLines(req)

	h := float64(len(lines)+1)*lineHeight + messagePadding*2
	h = max(h, float64(g.height)/4)
	x := float64(messageMargin)
	y := float64(g.height) - h - messageMargin
	w := float64(g.width - messageMargin*2)

	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), messageBoxColor, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 2, textColor, false)

	tx := x + messagePadding
	ty := y + messagePadding
	if req.Speaker != "" {
		g.drawText(screen, req.Speaker, tx, ty, selectedTextColor)
		ty += lineHeight
	}
	for i, line := range lines {
		var clr color.Color = textColor
		if req.Kind == stage.RequestChoices && i == g.input.choice {
			clr = selectedTextColor
		}
		g.drawText(screen, line, tx, ty, clr)
		ty += lineHeight
	}
}

// messageLines はメッセージウィンドウに表示する行を返す
func (g *Game) messageLines(req stage.Request) []string {
	switch req.Kind {
	case stage.RequestChoices:
		lines := make([]string, len(req.Choices))
		for i, c := range req.Choices {
			prefix := "  "
			if i == g.input.choice {
				prefix = "> "
			}
			lines[i] = prefix + c
		}
		return lines
	case stage.RequestNumber:
		return []string{fmt.Sprintf("Enter a number (%d digits): %s_", req.Digits, g.input.text())}
	case stage.RequestText:
		return []string{fmt.Sprintf("Enter text: %s_", g.input.text())}
	default:
		speed := 0
		if in := g.session.Interpreter(); in != nil {
			speed = in.Settings().MessageSpeed
		}
		return strings.Split(revealed(req.Text, req.Frames, speed), "\n")
	}
}

// revealed は表示開始から frames フレーム経ったときに見えている部分を返す
// speed は 1 フレームあたりの文字数で、0 以下なら全文をすぐに表示する
func revealed(s string, frames, speed int) string {
	if speed <= 0 {
		return s
	}
	runes := []rune(s)
	n := (frames + 1) * speed
	if n >= len(runes) {
		return s
	}
	return string(runes[:n])
}

// lineHeight は 1 行の高さ（行間設定を含む）
func (g *Game) lineHeight() float64 {
	m := g.face.Metrics()
	h := m.HAscent + m.HDescent + m.HLineGap
	if g.session != nil {
		if in := g.session.Interpreter(); in != nil {
			h += float64(in.Settings().LineSpacing)
		}
	}
	return h
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, g.face, op)
}
