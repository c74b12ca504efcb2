package stage

import (
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/zurustar/vnplay/pkg/logger"
)

// RequestKind はメッセージボックスが処理中の要求の種類
type RequestKind int

const (
	RequestNone RequestKind = iota
	RequestMessage
	RequestNumber
	RequestText
	RequestChoices
)

// String はログ用の名前を返す
func (k RequestKind) String() string {
	switch k {
	case RequestMessage:
		return "message"
	case RequestNumber:
		return "number"
	case RequestText:
		return "text"
	case RequestChoices:
		return "choices"
	default:
		return "none"
	}
}

// Request は表示中のメッセージまたは入力要求
type Request struct {
	Kind        RequestKind
	Owner       string
	Speaker     string
	Text        string
	AutoAdvance bool
	Digits      int
	MaxLength   int
	Choices     []string
	// Frames は表示開始からの経過フレーム数
	Frames int
	// Seq は要求ごとに増える通し番号（同じ所有者の連続した要求を区別する）
	Seq uint64
}

// DefaultAutoAdvanceFrames は自動送りのメッセージを閉じるまでのフレーム数
const DefaultAutoAdvanceFrames = 120

// MessageBox は一度に一つだけメッセージか入力要求を持つ
// 要求を出したコンテキストが所有者になり、閉じるまで他のコンテキストは待たされる
type MessageBox struct {
	current *pending
	seq     uint64
	// autoAnswer が有効なら Update で既定の答えを返して要求を閉じる（ヘッドレス用）
	autoAnswer        bool
	autoAdvanceFrames int
	log               *slog.Logger
	mu                sync.Mutex
}

type pending struct {
	req      Request
	done     func()
	number   func(int)
	text     func(string)
	selected func(int)
}

// MessageBoxOption は MessageBox の設定を変更するオプション
type MessageBoxOption func(*MessageBox)

// WithAutoAnswer はヘッドレス実行用の自動応答を設定する
func WithAutoAnswer(enabled bool) MessageBoxOption {
	return func(m *MessageBox) {
		m.autoAnswer = enabled
	}
}

// WithAutoAdvanceFrames は自動送りまでのフレーム数を設定する
func WithAutoAdvanceFrames(frames int) MessageBoxOption {
	return func(m *MessageBox) {
		m.autoAdvanceFrames = frames
	}
}

// WithMessageLogger はロガーを設定する
func WithMessageLogger(log *slog.Logger) MessageBoxOption {
	return func(m *MessageBox) {
		m.log = log
	}
}

// NewMessageBox は新しい MessageBox を作成する
func NewMessageBox(opts ...MessageBoxOption) *MessageBox {
	m := &MessageBox{
		autoAdvanceFrames: DefaultAutoAdvanceFrames,
		log:               logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MessageOwner は表示中の要求の所有者を返す
func (m *MessageBox) MessageOwner() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", false
	}
	return m.current.req.Owner, true
}

// Current は表示中の要求のコピーを返す
func (m *MessageBox) Current() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Request{}, false
	}
	req := m.current.req
	req.Choices = append([]string(nil), req.Choices...)
	return req, true
}

// Reset は表示中の要求をコールバックを呼ばずに破棄する（ロード時に使う）
func (m *MessageBox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

func (m *MessageBox) open(p *pending) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.log.Warn("Message box replaced an open request",
			"owner", m.current.req.Owner, "kind", m.current.req.Kind, "newOwner", p.req.Owner)
	}
	m.seq++
	p.req.Seq = m.seq
	m.current = p
}

// take は表示中の要求が kind なら取り出して閉じる
func (m *MessageBox) take(kind RequestKind) (*pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.req.Kind != kind {
		return nil, fmt.Errorf("no open %s request", kind)
	}
	p := m.current
	m.current = nil
	return p, nil
}

// ShowMessage はメッセージを表示する。閉じると done が呼ばれる
func (m *MessageBox) ShowMessage(owner, speaker, text string, autoAdvance bool, done func()) {
	m.open(&pending{
		req:  Request{Kind: RequestMessage, Owner: owner, Speaker: speaker, Text: text, AutoAdvance: autoAdvance},
		done: done,
	})
}

// InputNumber は digits 桁までの数値入力を開く
func (m *MessageBox) InputNumber(owner string, digits int, done func(int)) {
	m.open(&pending{
		req:    Request{Kind: RequestNumber, Owner: owner, Digits: digits},
		number: done,
	})
}

// InputText は maxLength 文字までの文字列入力を開く
func (m *MessageBox) InputText(owner string, maxLength int, done func(string)) {
	m.open(&pending{
		req:  Request{Kind: RequestText, Owner: owner, MaxLength: maxLength},
		text: done,
	})
}

// ShowChoices は選択肢を表示する
func (m *MessageBox) ShowChoices(owner string, choices []string, done func(int)) {
	m.open(&pending{
		req:      Request{Kind: RequestChoices, Owner: owner, Choices: append([]string(nil), choices...)},
		selected: done,
	})
}

// Advance は表示中のメッセージを閉じる
func (m *MessageBox) Advance() error {
	p, err := m.take(RequestMessage)
	if err != nil {
		return err
	}
	if p.done != nil {
		p.done()
	}
	return nil
}

// SubmitNumber は数値入力を確定する。桁数を超える値は切り詰める
func (m *MessageBox) SubmitNumber(n int) error {
	p, err := m.take(RequestNumber)
	if err != nil {
		return err
	}
	if d := p.req.Digits; d > 0 {
		limit := 1
		for i := 0; i < d; i++ {
			limit *= 10
		}
		n %= limit
	}
	if p.number != nil {
		p.number(n)
	}
	return nil
}

// SubmitText は文字列入力を確定する。最大文字数を超えた分は捨てる
func (m *MessageBox) SubmitText(s string) error {
	p, err := m.take(RequestText)
	if err != nil {
		return err
	}
	if n := p.req.MaxLength; n > 0 && utf8.RuneCountInString(s) > n {
		s = string([]rune(s)[:n])
	}
	if p.text != nil {
		p.text(s)
	}
	return nil
}

// Choose は index 番目の選択肢を選ぶ
func (m *MessageBox) Choose(index int) error {
	m.mu.Lock()
	if m.current == nil || m.current.req.Kind != RequestChoices {
		m.mu.Unlock()
		return fmt.Errorf("no open %s request", RequestChoices)
	}
	if index < 0 || index >= len(m.current.req.Choices) {
		n := len(m.current.req.Choices)
		m.mu.Unlock()
		return fmt.Errorf("choice index %d out of range [0, %d)", index, n)
	}
	p := m.current
	m.current = nil
	m.mu.Unlock()

	if p.selected != nil {
		p.selected(index)
	}
	return nil
}

// Update は 1 フレーム進める
// 自動送りのメッセージと、自動応答が有効な場合の要求をここで閉じる
func (m *MessageBox) Update() {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.current.req.Frames++
	req := m.current.req
	m.mu.Unlock()

	var err error
	switch {
	case req.Kind == RequestMessage && req.AutoAdvance && req.Frames >= m.autoAdvanceFrames:
		err = m.Advance()
	case !m.autoAnswer:
		return
	case req.Kind == RequestMessage:
		err = m.Advance()
	case req.Kind == RequestNumber:
		err = m.SubmitNumber(0)
	case req.Kind == RequestText:
		err = m.SubmitText("")
	case req.Kind == RequestChoices:
		if len(req.Choices) == 0 {
			m.mu.Lock()
			m.current = nil
			m.mu.Unlock()
			return
		}
		err = m.Choose(0)
	}
	if err != nil {
		m.log.Warn("Message box auto answer failed", "kind", req.Kind, "error", err)
		return
	}
	m.log.Debug("Message box closed", "kind", req.Kind, "owner", req.Owner, "frames", req.Frames)
}
