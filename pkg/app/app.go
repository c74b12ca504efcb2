package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	ebitenaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/zurustar/vnplay/pkg/audio"
	"github.com/zurustar/vnplay/pkg/cli"
	"github.com/zurustar/vnplay/pkg/interpreter"
	"github.com/zurustar/vnplay/pkg/logger"
	"github.com/zurustar/vnplay/pkg/player"
	"github.com/zurustar/vnplay/pkg/save"
	"github.com/zurustar/vnplay/pkg/scene"
	"github.com/zurustar/vnplay/pkg/stage"
	"github.com/zurustar/vnplay/pkg/title"
	"github.com/zurustar/vnplay/pkg/window"
)

// AppName はセーブデータの保存先などに使う名前
const AppName = "vnplay"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	titleReg *title.Registry
	embedFS  fs.FS
	audioCtx *ebitenaudio.Context // GUIモードでのみ作成（プロセスに 1 つ）
}

// New Applicationを作成
// embedFS は titles/ と soundfonts/ を含む埋め込みファイルシステム（nil 可）
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS: embedFS,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "headless", app.config.Headless)

	// 3. タイトルの読み込み
	selected, needsSelection, err := app.loadTitles()
	if err != nil {
		return fmt.Errorf("failed to load title: %w", err)
	}

	// 4. 実行
	if app.config.Headless {
		err = app.runHeadless(selected, needsSelection)
	} else {
		err = app.runWindow(selected, needsSelection)
	}
	if errors.Is(err, window.ErrCancelled) {
		app.log.Info("Selection cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadTitles 埋め込みタイトルと外部タイトルを読み込んで選択する
func (app *Application) loadTitles() (*title.Title, bool, error) {
	app.titleReg = title.NewRegistry(app.embedFS, title.WithLogger(app.log))

	// 外部タイトルの読み込み（指定されている場合）
	if app.config.ProjectPath != "" {
		if err := app.titleReg.LoadExternal(app.config.ProjectPath); err != nil {
			return nil, false, fmt.Errorf("failed to load external project: %w", err)
		}
	}

	selected, needsSelection, err := app.titleReg.Select()
	if err != nil {
		return nil, false, fmt.Errorf("failed to select title: %w", err)
	}
	if selected != nil {
		app.log.Info("Title selected", "name", selected.Name, "path", selected.Path, "embedded", selected.IsEmbedded)
	}
	return selected, needsSelection, nil
}

// runHeadless ヘッドレスモードで実行する
func (app *Application) runHeadless(selected *title.Title, needsSelection bool) error {
	if needsSelection {
		titles := app.titleReg.Available()
		app.log.Info("Multiple titles available, reading selection from stdin", "count", len(titles))
		var err error
		selected, err = window.SelectHeadless(titles, app.config.Timeout, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
	}

	s, err := app.startSession(selected)
	if err != nil {
		return err
	}
	defer s.Shutdown()

	// Ctrl+C で停止する
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = player.RunHeadless(ctx, s, player.HeadlessConfig{Timeout: app.config.Timeout})
	if errors.Is(err, context.Canceled) {
		app.log.Info("Interrupted")
		return nil
	}
	return err
}

// runWindow GUIモードで実行する
func (app *Application) runWindow(selected *title.Title, needsSelection bool) error {
	opts := []window.Option{
		window.WithQuickSaveSlot(app.config.QuickSlot),
		window.WithTitleSelected(app.startSession),
		window.WithLogger(app.log),
	}

	mode := window.ModeSelection
	windowTitle := AppName
	if !needsSelection {
		s, err := app.startSession(selected)
		if err != nil {
			return err
		}
		mode = window.ModePlaying
		windowTitle = selected.DisplayName()
		opts = append(opts,
			window.WithSession(s),
			window.WithFace(window.LoadFace(selected.FS, selected.Project.Font, app.log)),
		)
	}

	game := window.NewGame(mode, app.titleReg.Available(), app.config.Timeout, opts...)
	return window.Run(game, windowTitle)
}

// startSession はタイトルのセッションを作成して開始する
func (app *Application) startSession(t *title.Title) (*player.Session, error) {
	library := scene.NewLibrary(t.FS, t.Project, scene.WithLogger(app.log))
	if err := library.Preload(); err != nil {
		return nil, fmt.Errorf("failed to load scenes of %s: %w", t.DisplayName(), err)
	}

	opts := []player.Option{
		player.WithLogger(app.log),
		player.WithSaves(save.Open(AppName+"-"+t.Name, save.WithLogger(app.log))),
		player.WithAudio(app.newAudio(t)),
		player.WithPictures(stage.NewPictures(t.FS, stage.WithPicturesLogger(app.log))),
		player.WithMessageBox(stage.NewMessageBox(
			stage.WithAutoAnswer(app.config.Headless),
			stage.WithMessageLogger(app.log),
		)),
		player.WithRepeat(app.config.Repeat),
	}
	if app.config.Preview {
		opts = append(opts, player.WithPreview(&interpreter.Preview{Enabled: true}))
	}

	s := player.NewSession(library, t.FS, opts...)
	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", t.DisplayName(), err)
	}

	if app.config.Slot != cli.NoSlot {
		if err := s.Load(app.config.Slot); err != nil {
			s.Shutdown()
			return nil, fmt.Errorf("failed to load slot %d: %w", app.config.Slot, err)
		}
		app.log.Info("Save loaded", "slot", app.config.Slot)
	}
	return s, nil
}

// newAudio はタイトル用のオーディオプレイヤーを作成する
// SoundFont が見つからなくても MIDI 以外は再生できる
func (app *Application) newAudio(t *title.Title) *audio.Player {
	opts := []audio.Option{
		audio.WithLogger(app.log),
		audio.WithMuted(app.config.Mute || app.config.Headless),
	}

	if !app.config.Headless {
		if app.audioCtx == nil {
			app.audioCtx = ebitenaudio.NewContext(audio.SampleRate)
		}
		opts = append(opts, audio.WithContext(app.audioCtx))
	}

	loc, err := findSoundFont(app.embedFS, t, app.config.SoundFont)
	if err != nil {
		app.log.Warn("SoundFont not found, MIDI music is disabled", "error", err)
	} else if sf, err := audio.LoadSoundFont(loc); err != nil {
		app.log.Warn("Failed to load SoundFont, MIDI music is disabled", "error", err)
	} else {
		app.log.Info("SoundFont loaded", "path", loc.Path, "source", loc.FS.Describe())
		opts = append(opts, audio.WithSoundFont(sf))
	}

	return audio.New(t.FS, opts...)
}
