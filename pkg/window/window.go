// Package window はプロジェクトを Ebitengine のウィンドウで実行する。
// 複数のプロジェクトがある場合はタイトル選択画面を表示する。
package window

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/zurustar/vnplay/pkg/logger"
	"github.com/zurustar/vnplay/pkg/player"
	"github.com/zurustar/vnplay/pkg/stage"
	"github.com/zurustar/vnplay/pkg/title"
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// 選択中のテキスト色（黄色）
	selectedTextColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// メッセージウィンドウの背景色（半透明の黒）
	messageBoxColor = color.RGBA{0x00, 0x00, 0x00, 0xC0}
)

// 画面サイズのデフォルト
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// statusFrames はステータス表示を出しておくフレーム数
const statusFrames = 120

// Mode はウィンドウの表示モードを表す
type Mode int

const (
	ModeSelection Mode = iota // タイトル選択画面
	ModePlaying               // プロジェクト実行中
)

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	mode          Mode          // 現在のモード
	titles        []title.Title // 利用可能なタイトル一覧
	selectedIndex int           // 選択中のタイトルのインデックス
	selectedTitle *title.Title  // 選択されたタイトル
	timeout       time.Duration // タイムアウト時間
	startTime     time.Time     // 開始時刻
	width         int
	height        int

	session   *player.Session
	face      text.Face
	images    map[image.Image]*ebiten.Image // ピクチャーの GPU 画像キャッシュ
	input     inputState
	quickSlot int
	status    string
	statusAge int

	// タイトル選択時にセッションを作るコールバック
	onTitleSelected func(t *title.Title) (*player.Session, error)
	transitionError error // モード遷移時のエラー

	log *slog.Logger
}

// Option は Game の設定を変更するオプション
type Option func(*Game)

// WithSession は実行するセッションを設定する
func WithSession(s *player.Session) Option {
	return func(g *Game) {
		g.session = s
	}
}

// WithTitleSelected はタイトル選択時のコールバックを設定する
func WithTitleSelected(fn func(t *title.Title) (*player.Session, error)) Option {
	return func(g *Game) {
		g.onTitleSelected = fn
	}
}

// WithFace はメッセージ表示に使うフォントを設定する
func WithFace(face text.Face) Option {
	return func(g *Game) {
		g.face = face
	}
}

// WithQuickSaveSlot は F5/F9 で使うスロットを設定する
func WithQuickSaveSlot(slot int) Option {
	return func(g *Game) {
		g.quickSlot = slot
	}
}

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// NewGame は新しいゲームを作成する
func NewGame(mode Mode, titles []title.Title, timeout time.Duration, opts ...Option) *Game {
	g := &Game{
		mode:      mode,
		titles:    titles,
		timeout:   timeout,
		startTime: time.Now(),
		width:     DefaultWidth,
		height:    DefaultHeight,
		face:      defaultFace,
		images:    make(map[image.Image]*ebiten.Image),
		log:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.session != nil {
		g.applyScreen()
	}
	return g
}

// hasTitleSelection は選択画面に戻れるかどうかを返す
func (g *Game) hasTitleSelection() bool {
	return len(g.titles) > 1
}

// applyScreen はプロジェクトの画面サイズを使う
func (g *Game) applyScreen() {
	p := g.session.Project()
	if p.Screen.Width > 0 && p.Screen.Height > 0 {
		g.width, g.height = p.Screen.Width, p.Screen.Height
	}
}

// Update 毎フレームの更新処理
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		g.log.Info("Timeout reached, exiting", "timeout", g.timeout)
		return ebiten.Termination
	}

	switch g.mode {
	case ModeSelection:
		return g.updateSelection()
	case ModePlaying:
		return g.updatePlaying()
	}
	return nil
}

// updateSelection タイトル選択画面の更新
func (g *Game) updateSelection() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) && g.selectedIndex > 0 {
		g.selectedIndex--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) && g.selectedIndex < len(g.titles)-1 {
		g.selectedIndex++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && len(g.titles) > 0 {
		return g.selectTitle(g.selectedIndex)
	}
	return nil
}

// selectTitle は index のタイトルを選択して実行を始める
func (g *Game) selectTitle(index int) error {
	g.selectedTitle = &g.titles[index]
	if g.onTitleSelected == nil {
		// コールバックがない場合は選択だけして終了
		return ebiten.Termination
	}

	s, err := g.onTitleSelected(g.selectedTitle)
	if err != nil {
		g.transitionError = err
		return ebiten.Termination
	}
	g.session = s
	g.applyScreen()
	g.face = LoadFace(g.selectedTitle.FS, g.selectedTitle.Project.Font, g.log)
	g.mode = ModePlaying
	g.startTime = time.Now() // タイムアウトをリセット
	return nil
}

// updatePlaying 実行中の更新
// Esc: 複数タイトルなら選択画面に戻り、そうでなければ終了する
// F5/F9: クイックセーブ/クイックロード
func (g *Game) updatePlaying() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if g.hasTitleSelection() {
			g.returnToSelection()
			return nil
		}
		return ebiten.Termination
	}
	if g.session == nil {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.quickSave()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.quickLoad()
	}

	g.handleMessageInput()
	g.session.Update()

	if g.statusAge > 0 {
		g.statusAge--
	}
	return nil
}

// returnToSelection は実行中のセッションを止めてタイトル選択画面に戻る
func (g *Game) returnToSelection() {
	if g.session != nil {
		g.session.Shutdown()
	}
	g.session = nil
	g.images = make(map[image.Image]*ebiten.Image)
	g.input.reset()
	g.face = defaultFace
	g.width, g.height = DefaultWidth, DefaultHeight
	g.mode = ModeSelection
}

func (g *Game) quickSave() {
	if err := g.session.Save(g.quickSlot); err != nil {
		g.log.Error("Quick save failed", "slot", g.quickSlot, "error", err)
		g.showStatus(fmt.Sprintf("Save failed: %v", err))
		return
	}
	g.showStatus(fmt.Sprintf("Saved to slot %d", g.quickSlot))
}

func (g *Game) quickLoad() {
	if err := g.session.Load(g.quickSlot); err != nil {
		g.log.Error("Quick load failed", "slot", g.quickSlot, "error", err)
		g.showStatus(fmt.Sprintf("Load failed: %v", err))
		return
	}
	g.input.reset()
	g.showStatus(fmt.Sprintf("Loaded slot %d", g.quickSlot))
}

func (g *Game) showStatus(msg string) {
	g.status = msg
	g.statusAge = statusFrames
}

// handleMessageInput はメッセージボックスへの入力を処理する
func (g *Game) handleMessageInput() {
	mb := g.session.Messages()
	req, ok := mb.Current()
	if !ok {
		g.input.reset()
		return
	}
	g.input.track(req)

	confirm := inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter)
	click := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	backspace := inpututil.IsKeyJustPressed(ebiten.KeyBackspace)

	var err error
	switch req.Kind {
	case stage.RequestMessage:
		if confirm || click || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
			err = mb.Advance()
		}
	case stage.RequestChoices:
		if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
			g.input.moveChoice(-1, len(req.Choices))
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
			g.input.moveChoice(1, len(req.Choices))
		}
		if confirm || click {
			err = mb.Choose(g.input.choice)
		}
	case stage.RequestNumber:
		g.input.typeRunes(ebiten.AppendInputChars(nil), true, req.Digits)
		if backspace {
			g.input.backspace()
		}
		if confirm {
			err = mb.SubmitNumber(g.input.number())
		}
	case stage.RequestText:
		g.input.typeRunes(ebiten.AppendInputChars(nil), false, req.MaxLength)
		if backspace {
			g.input.backspace()
		}
		if confirm {
			err = mb.SubmitText(g.input.text())
		}
	}
	if err != nil {
		g.log.Warn("Message input rejected", "kind", req.Kind, "error", err)
		return
	}
	if _, open := mb.Current(); !open {
		g.input.reset()
	}
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// GetSelectedTitle 選択されたタイトルを取得
func (g *Game) GetSelectedTitle() *title.Title {
	return g.selectedTitle
}

// Session は実行中のセッションを返す
func (g *Game) Session() *player.Session {
	return g.session
}

// Run GUIモードでウィンドウを実行
func Run(game *Game, windowTitle string) error {
	ebiten.SetWindowSize(game.width, game.height)
	ebiten.SetWindowTitle(windowTitle)
	// リサイズ時は Ebitengine がアスペクト比を保ってスケーリングする
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	if game.transitionError != nil {
		return game.transitionError
	}
	if game.session != nil {
		game.session.Shutdown()
	}
	return nil
}
