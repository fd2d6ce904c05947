package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestLineConfirmer_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"小写 y", "y\n", true},
		{"大写 Y", "Y\n", true},
		{"Windows 换行", "y\r\n", true},
		{"没有换行直接 EOF", "y", true},
		{"yes 不算", "yes\n", false},
		{"前面有空格不算", " y\n", false},
		{"n", "n\n", false},
		{"直接回车", "\n", false},
		{"空输入", "", false},
		{"只读第一行", "n\ny\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirmer := NewLineConfirmer(strings.NewReader(tt.input), &out)

			ok, err := confirmer.Confirm(context.Background(), "Do you want to unstar 2 repositories? (y/N): ")

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, "Do you want to unstar 2 repositories? (y/N): ", out.String())
		})
	}
}

func TestLineConfirmer_ReadError(t *testing.T) {
	confirmer := NewLineConfirmer(failingReader{}, &bytes.Buffer{})

	ok, err := confirmer.Confirm(context.Background(), "? ")

	assert.False(t, ok)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tty gone")
}

func TestLineConfirmer_CancelWhileWaiting(t *testing.T) {
	// 管道一直不写入，模拟终端前的用户迟迟不回答
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	confirmer := NewLineConfirmer(pr, &out)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		ok, err := confirmer.Confirm(ctx, "(y/N): ")
		assert.False(t, ok)
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm 在 ctx 取消后仍然阻塞")
	}
}

func TestLineConfirmer_AlreadyCanceled(t *testing.T) {
	var out bytes.Buffer
	confirmer := NewLineConfirmer(strings.NewReader("y\n"), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := confirmer.Confirm(ctx, "(y/N): ")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
