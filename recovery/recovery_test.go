package recovery

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("NoPanic", func(t *testing.T) {
		err := Do(func() error { return io.EOF })()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("PanicString", func(t *testing.T) {
		err := Do(func() error { panic("boom") })()
		var pe *PanicError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, "boom", pe.Value)
		require.EqualError(t, err, "panic: boom")
	})

	t.Run("PanicError", func(t *testing.T) {
		err := Do(func() error { panic(io.ErrUnexpectedEOF) })()
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("PanicOther", func(t *testing.T) {
		err := Do(func() error { panic(42) })()
		require.EqualError(t, err, "panic: 42")
	})

	t.Run("Logged", func(t *testing.T) {
		buf := &bytes.Buffer{}
		err := Do(func() error { panic("boom") }, log.NewLogfmtLogger(buf))()
		require.Error(t, err)
		require.Contains(t, buf.String(), "recovered from panic")
		require.Contains(t, buf.String(), "stacktrace")
	})
}
