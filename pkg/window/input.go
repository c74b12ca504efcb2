package window

import (
	"strconv"
	"unicode"

	"github.com/zurustar/vnplay/pkg/stage"
)

// inputState はメッセージボックスへの入力途中の状態
type inputState struct {
	seq    uint64
	buf    []rune
	choice int
}

// track は表示中の要求が変わったら入力途中の状態を捨てる
// 同じ所有者が続けて出した同じ種類の要求も Seq で区別する
func (s *inputState) track(req stage.Request) {
	if s.seq != req.Seq {
		s.reset()
		s.seq = req.Seq
	}
}

func (s *inputState) reset() {
	*s = inputState{}
}

// typeRunes は入力された文字を追加する。limit が正なら文字数を制限する
func (s *inputState) typeRunes(runes []rune, digitsOnly bool, limit int) {
	for _, r := range runes {
		if digitsOnly && (r < '0' || r > '9') {
			continue
		}
		if !digitsOnly && !unicode.IsPrint(r) {
			continue
		}
		if limit > 0 && len(s.buf) >= limit {
			return
		}
		s.buf = append(s.buf, r)
	}
}

func (s *inputState) backspace() {
	if len(s.buf) > 0 {
		s.buf = s.buf[:len(s.buf)-1]
	}
}

func (s *inputState) text() string {
	return string(s.buf)
}

// number は入力された数字を返す。空なら 0
func (s *inputState) number() int {
	n, err := strconv.Atoi(string(s.buf))
	if err != nil {
		return 0
	}
	return n
}

// moveChoice は選択肢のカーソルを delta だけ動かす（端で止まる）
func (s *inputState) moveChoice(delta, count int) {
	s.choice = min(max(s.choice+delta, 0), max(count-1, 0))
}
