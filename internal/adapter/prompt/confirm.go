package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LineConfirmer 实现了 port.Confirmer 接口，从输入流读取一行作为回答
type LineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineConfirmer 通常传入 os.Stdin / os.Stdout
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm 打印提示并读取回答，只有 y / Y 视为同意
// 输入流提前结束 (例如管道关闭) 视为拒绝；ctx 取消 (Ctrl+C) 时立即返回 ctx.Err()
func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return false, err
	}

	line, err := c.readLine(ctx)
	if err != nil {
		return false, err
	}

	answer := strings.TrimRight(line, "\r\n")
	return strings.EqualFold(answer, "y"), nil
}

// readLine 读取一行，读取本身阻塞时由 ctx 打断
// 被打断的读取 goroutine 会一直等到输入流结束，进程随后就会退出
func (c *LineConfirmer) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}

	resultCh := make(chan result, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		resultCh <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", fmt.Errorf("读取确认输入失败: %w", res.err)
		}
		return res.line, nil
	}
}
