package jsonlutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEncodesLines(t *testing.T) {
	var buf bytes.Buffer
	in, done := Start[int](&buf, 1, func(enc *json.Encoder, v int) error {
		return enc.Encode(map[string]int{"v": v})
	}, nil)
	for i := 0; i < 3; i++ {
		in <- i
	}
	close(in)
	require.NoError(t, <-done)
	assert.Equal(t, "{\"v\":0}\n{\"v\":1}\n{\"v\":2}\n", buf.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestStartDrainsAfterError(t *testing.T) {
	boom := errors.New("boom")
	in, done := Start[int](io.Discard, 1, func(*json.Encoder, int) error { return boom }, nil)
	for i := 0; i < 10; i++ {
		in <- i // must not block after the first failure
	}
	close(in)
	assert.ErrorIs(t, <-done, boom)
}

func TestStartSuppressesBrokenPipe(t *testing.T) {
	in, done := Start[int](failWriter{}, 1, func(enc *json.Encoder, v int) error {
		return enc.Encode(v)
	}, func(err error) bool { return errors.Is(err, io.ErrClosedPipe) })
	in <- 1
	close(in)
	assert.NoError(t, <-done)
}
