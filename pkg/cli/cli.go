package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/vnplay/pkg/interpreter"
	"github.com/zurustar/vnplay/pkg/save"
	"github.com/zurustar/vnplay/pkg/scene"
)

// 環境変数名
const (
	EnvHeadless = "VNPLAY_HEADLESS"
	EnvTimeout  = "VNPLAY_TIMEOUT"
	EnvLogLevel = "VNPLAY_LOG_LEVEL"
)

// NoSlot はセーブスロットを指定しないことを表す
const NoSlot = -1

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ProjectPath string        // プロジェクトのディレクトリ
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	Headless    bool          // ヘッドレスモード
	Preview     bool          // ライブプレビュー（コマンド数の上限で 1 フレーム休む）
	Repeat      bool          // 開始シーンを繰り返す
	Mute        bool          // 音を出さない
	Slot        int           // 起動時に読み込むセーブスロット（NoSlot なら読み込まない）
	QuickSlot   int           // F5/F9 のクイックセーブスロット
	SoundFont   string        // SoundFont ファイルのパス
	ShowHelp    bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ（reorderArgs で使う）
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-headless": true, "--headless": true,
	"-preview": true, "--preview": true,
	"-repeat": true, "--repeat": true,
	"-mute": true, "--mute": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("vnplay", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.Preview, "preview", false, "ライブプレビュー")
	fs.BoolVar(&config.Repeat, "repeat", false, "開始シーンを繰り返す")
	fs.BoolVar(&config.Mute, "mute", false, "音を出さない")
	fs.IntVar(&config.Slot, "slot", NoSlot, "起動時に読み込むセーブスロット")
	fs.IntVar(&config.QuickSlot, "quick-slot", 0, "クイックセーブのスロット")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFont ファイルのパス")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv(EnvHeadless); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv(EnvTimeout); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv(EnvLogLevel); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// スロットの検証
	if config.Slot != NoSlot && (config.Slot < 0 || config.Slot >= save.MaxSlots) {
		return nil, fmt.Errorf("slot must be between 0 and %d, got %d", save.MaxSlots-1, config.Slot)
	}
	if config.QuickSlot < 0 || config.QuickSlot >= save.MaxSlots {
		return nil, fmt.Errorf("quick-slot must be between 0 and %d, got %d", save.MaxSlots-1, config.QuickSlot)
	}

	// 位置引数（プロジェクトのパス）
	if fs.NArg() > 0 {
		path := fs.Arg(0)

		// project.yaml が指定された場合はそのディレクトリを使う
		if strings.EqualFold(filepath.Base(path), scene.ProjectFileName) {
			config.ProjectPath = filepath.Dir(path)
		} else {
			config.ProjectPath = path
		}
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように次の引数が値の場合は一緒に移す
			// -flag=value とブール型フラグは値を取らない
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `vnplay - scene command player

Usage:
  vnplay [options] [project-path]

Arguments:
  project-path  プロジェクトのディレクトリ、または project.yaml のパス（省略可）
                省略した場合はバイナリに埋め込まれたプロジェクトを使用

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（GUIなし、入力は自動応答）
  --preview                   ライブプレビュー（%d コマンドごとに 1 フレーム休む）
  --repeat                    開始シーンを終わるたびに繰り返す
  --mute                      音を出さない
  --slot <n>                  起動時にセーブスロット n を読み込む（0-%d）
  --quick-slot <n>            F5/F9 で使うスロット（デフォルト: 0）
  --soundfont <path>          MIDI 再生に使う SoundFont ファイル
  -h, --help                  このヘルプを表示

Keys:
  Enter/Space/Click           メッセージを送る
  Up/Down + Enter             選択肢を選ぶ
  F5 / F9                     クイックセーブ / クイックロード
  Esc                         終了（複数プロジェクトの場合は選択画面に戻る）

Environment Variables:
  %s=1           ヘッドレスモードを有効化
  %s=<seconds>    タイムアウト時間（秒）
  %s=<level>    ログレベル

Examples:
  vnplay /path/to/project             ディレクトリを指定
  vnplay --timeout 10                 10秒後に自動終了
  vnplay --headless --slot 2 ./story  スロット 2 から再開してヘッドレス実行
  %s=1 vnplay ./story   環境変数でヘッドレスモード
`, interpreter.PreviewBudget, save.MaxSlots-1, EnvHeadless, EnvTimeout, EnvLogLevel, EnvHeadless)
}
