package meeting

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClipboard struct {
	err   error
	texts []string
}

func (c *recordingClipboard) write(text string) error {
	c.texts = append(c.texts, text)
	return c.err
}

func TestCopierPrimary(t *testing.T) {
	primary := &recordingClipboard{}
	fallback := &recordingClipboard{}
	c := NewCopier(primary.write, fallback.write, nil)

	require.NoError(t, c.Copy("https://option.ai/join/1"))
	assert.Equal(t, []string{"https://option.ai/join/1"}, primary.texts)
	assert.Empty(t, fallback.texts)
	assert.True(t, c.Copied())
}

func TestCopierFallsBackWhenPrimaryUnavailable(t *testing.T) {
	primary := &recordingClipboard{err: errors.New("no clipboard utility available")}
	var term bytes.Buffer
	c := NewCopier(primary.write, OSC52Clipboard(&term), nil)
	c.Hold = 50 * time.Millisecond

	require.NoError(t, c.Copy("link"))
	assert.True(t, c.Copied(), "fallback success still shows the indicator")
	assert.Equal(t, "\x1b]52;c;"+base64.StdEncoding.EncodeToString([]byte("link"))+"\a", term.String())

	require.Eventually(t, func() bool { return !c.Copied() }, time.Second, 10*time.Millisecond)
}

func TestCopierNoPrimary(t *testing.T) {
	fallback := &recordingClipboard{}
	c := NewCopier(nil, fallback.write, nil)

	require.NoError(t, c.Copy("x"))
	assert.Equal(t, []string{"x"}, fallback.texts)
	assert.True(t, c.Copied())
}

func TestCopierBothFail(t *testing.T) {
	primary := &recordingClipboard{err: errors.New("primary")}
	fallback := &recordingClipboard{err: errors.New("fallback")}
	c := NewCopier(primary.write, fallback.write, nil)

	require.Error(t, c.Copy("x"))
	assert.False(t, c.Copied())
}

func TestCopierRecopyExtendsIndicator(t *testing.T) {
	primary := &recordingClipboard{}
	c := NewCopier(primary.write, nil, nil)
	c.Hold = 80 * time.Millisecond

	require.NoError(t, c.Copy("a"))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Copy("b"))
	time.Sleep(50 * time.Millisecond)
	assert.True(t, c.Copied(), "the first timer must not clear the second copy")

	require.Eventually(t, func() bool { return !c.Copied() }, time.Second, 10*time.Millisecond)
}
