// Package save はセーブデータと永続変数の保存・読み込みを行う。
// 保存先は gdata（プラットフォームごとのユーザーデータ領域）で、
// gdata が使えない環境ではメモリ上にだけ保持する。
package save

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/zurustar/vnplay/pkg/interpreter"
	"github.com/zurustar/vnplay/pkg/logger"
	"github.com/zurustar/vnplay/pkg/variables"
)

// FormatVersion はセーブデータの形式のバージョン
const FormatVersion = 1

// MaxSlots はセーブスロットの数
const MaxSlots = 20

// 保存先のキー
const (
	savesObject        = "saves"
	systemObject       = "system"
	persistentProperty = "persistent"
)

// ErrNoSave は指定スロットにセーブデータがないことを示す
var ErrNoSave = errors.New("no save data")

// PictureState は表示中のピクチャー
type PictureState struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
}

// MusicState は再生中の音楽
type MusicState struct {
	Name   string `yaml:"name"`
	Volume int    `yaml:"volume"`
}

// Data は 1 スロット分のセーブデータ
type Data struct {
	Version     int                  `yaml:"version"`
	Title       string               `yaml:"title"`
	Scene       string               `yaml:"scene"`
	SavedAt     time.Time            `yaml:"savedAt"`
	Interpreter interpreter.Snapshot `yaml:"interpreter"`
	Variables   variables.Snapshot   `yaml:"variables"`
	Pictures    []PictureState       `yaml:"pictures,omitempty"`
	Music       *MusicState          `yaml:"music,omitempty"`
}

// Manager はセーブデータを管理する
type Manager struct {
	store  *gdata.Manager // nil ならメモリのみ（縮退モード）
	memory map[string][]byte
	log    *slog.Logger
	mu     sync.Mutex
}

// Option は Manager の設定を変更するオプション
type Option func(*Manager)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager は store を使う Manager を作成する。store が nil ならメモリ上にだけ保存する
func NewManager(store *gdata.Manager, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		memory: make(map[string][]byte),
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open は appName のデータ領域を開く
// 開けなかった場合は警告を出してメモリのみの Manager を返す
func Open(appName string, opts ...Option) *Manager {
	store, err := gdata.Open(gdata.Config{AppName: appName})
	m := NewManager(nil, opts...)
	if err != nil {
		m.log.Warn("Save storage unavailable, saves are kept in memory only", "app", appName, "error", err)
		return m
	}
	m.store = store
	return m
}

// IsPersistent はディスクに保存されるかどうかを返す
func (m *Manager) IsPersistent() bool {
	return m.store != nil
}

func slotProperty(slot int) string {
	return fmt.Sprintf("slot%02d", slot)
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= MaxSlots {
		return fmt.Errorf("save slot out of range: %d", slot)
	}
	return nil
}

func (m *Manager) write(object, prop string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.memory[object+"/"+prop] = append([]byte(nil), data...)
		return nil
	}
	return m.store.SaveObjectProp(object, prop, data)
}

func (m *Manager) read(object, prop string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		data, ok := m.memory[object+"/"+prop]
		if !ok {
			return nil, ErrNoSave
		}
		return data, nil
	}
	if !m.store.ObjectPropExists(object, prop) {
		return nil, ErrNoSave
	}
	return m.store.LoadObjectProp(object, prop)
}

func (m *Manager) exists(object, prop string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		_, ok := m.memory[object+"/"+prop]
		return ok
	}
	return m.store.ObjectPropExists(object, prop)
}

// Save は data を slot に保存する
func (m *Manager) Save(slot int, data *Data) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	data.Version = FormatVersion
	if data.SavedAt.IsZero() {
		data.SavedAt = time.Now()
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal save data: %w", err)
	}
	if err := m.write(savesObject, slotProperty(slot), b); err != nil {
		return fmt.Errorf("failed to save slot %d: %w", slot, err)
	}
	m.log.Info("Saved", "slot", slot, "scene", data.Scene, "persistent", m.IsPersistent())
	return nil
}

// Load は slot のセーブデータを読み込む
func (m *Manager) Load(slot int) (*Data, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	b, err := m.read(savesObject, slotProperty(slot))
	if err != nil {
		if errors.Is(err, ErrNoSave) {
			return nil, fmt.Errorf("slot %d: %w", slot, ErrNoSave)
		}
		return nil, fmt.Errorf("failed to load slot %d: %w", slot, err)
	}
	var data Data
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slot %d: %w", slot, err)
	}
	if data.Version > FormatVersion {
		return nil, fmt.Errorf("slot %d was saved by a newer version (%d)", slot, data.Version)
	}
	return &data, nil
}

// Exists は slot にセーブデータがあるかどうかを返す
func (m *Manager) Exists(slot int) bool {
	if checkSlot(slot) != nil {
		return false
	}
	return m.exists(savesObject, slotProperty(slot))
}

// Delete は slot のセーブデータを削除する
func (m *Manager) Delete(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prop := slotProperty(slot)
	if m.store == nil {
		delete(m.memory, savesObject+"/"+prop)
		return nil
	}
	if !m.store.ObjectPropExists(savesObject, prop) {
		return nil
	}
	return m.store.DeleteObjectProp(savesObject, prop)
}

// Slots はセーブデータのあるスロット番号を返す
func (m *Manager) Slots() []int {
	var slots []int
	for i := 0; i < MaxSlots; i++ {
		if m.Exists(i) {
			slots = append(slots, i)
		}
	}
	return slots
}

// SavePersistent は永続変数を保存する
func (m *Manager) SavePersistent(bank *variables.Bank) error {
	b, err := yaml.Marshal(bank)
	if err != nil {
		return fmt.Errorf("failed to marshal persistent variables: %w", err)
	}
	if err := m.write(systemObject, persistentProperty, b); err != nil {
		return fmt.Errorf("failed to save persistent variables: %w", err)
	}
	return nil
}

// LoadPersistent は永続変数を読み込む。保存されていなければ空のバンクを返す
func (m *Manager) LoadPersistent() (*variables.Bank, error) {
	b, err := m.read(systemObject, persistentProperty)
	if errors.Is(err, ErrNoSave) {
		return variables.NewBank(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load persistent variables: %w", err)
	}
	bank := variables.NewBank()
	if err := yaml.Unmarshal(b, bank); err != nil {
		return nil, fmt.Errorf("failed to unmarshal persistent variables: %w", err)
	}
	return bank, nil
}
