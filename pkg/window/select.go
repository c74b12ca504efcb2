package window

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/vnplay/pkg/title"
)

// ErrCancelled はタイトル選択が取り消されたことを示す
var ErrCancelled = errors.New("selection cancelled")

// SelectHeadless はヘッドレスモードで標準入力からタイトルを選ばせる
// タイトルが 1 つだけなら自動選択する
func SelectHeadless(titles []title.Title, timeout time.Duration, reader io.Reader, writer io.Writer) (*title.Title, error) {
	switch len(titles) {
	case 0:
		return nil, fmt.Errorf("no projects available")
	case 1:
		fmt.Fprintf(writer, "Auto-selecting project: %s\n", titles[0].DisplayName())
		return &titles[0], nil
	}

	// タイムアウト処理用のコンテキスト
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fmt.Fprintln(writer, "Available projects:")
	for i, t := range titles {
		fmt.Fprintf(writer, "  %d: %s\n", i+1, t.DisplayName())
	}
	fmt.Fprintln(writer)

	// 選択を受け付ける
	scanner := bufio.NewScanner(reader)
	resultCh := make(chan *title.Title, 1)
	errCh := make(chan error, 1)

	go func() {
		for {
			fmt.Fprintf(writer, "Select a project (1-%d) or 'q' to quit: ", len(titles))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					errCh <- fmt.Errorf("failed to read input: %w", err)
				} else {
					errCh <- fmt.Errorf("input closed")
				}
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(input, "q") {
				errCh <- ErrCancelled
				return
			}

			num, err := strconv.Atoi(input)
			if err != nil {
				fmt.Fprintln(writer, "Invalid input. Please enter a number.")
				continue
			}
			if num < 1 || num > len(titles) {
				fmt.Fprintf(writer, "Invalid selection. Please enter a number between 1 and %d.\n", len(titles))
				continue
			}

			selected := &titles[num-1]
			fmt.Fprintf(writer, "Selected: %s\n", selected.DisplayName())
			resultCh <- selected
			return
		}
	}()

	// タイムアウトまたは選択完了を待つ
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout")
	case err := <-errCh:
		return nil, err
	case selected := <-resultCh:
		return selected, nil
	}
}
