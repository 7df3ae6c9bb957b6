package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickSourceDir(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit flag wins", func(t *testing.T) {
		source, rest := pickSourceDir([]string{dir, "-x"}, "/elsewhere")
		assert.Equal(t, "/elsewhere", source)
		assert.Equal(t, []string{dir, "-x"}, rest)
	})

	t.Run("first existing directory is the source", func(t *testing.T) {
		source, rest := pickSourceDir([]string{"-p", dir, "extra"}, "")
		assert.Equal(t, dir, source)
		assert.Equal(t, []string{"-p", "extra"}, rest)
	})

	t.Run("nonexistent paths pass through", func(t *testing.T) {
		source, rest := pickSourceDir([]string{"no/such/dir"}, "")
		assert.NotEqual(t, "no/such/dir", source)
		assert.Equal(t, []string{"no/such/dir"}, rest)
	})
}

func TestWantSimNetwork(t *testing.T) {
	t.Cleanup(func() { runNet, runNoNet = false, false })

	runNet, runNoNet = false, false
	assert.True(t, wantSimNetwork("/home/ubuntu/builds/ab12cd34/zephyr/zephyr.exe"))
	assert.False(t, wantSimNetwork("/home/ubuntu/builds/ab12cd34/zephyr/zephyr.elf"))
	assert.True(t, wantSimNetwork("/home/ubuntu/builds/native_sim/zephyr/zephyr.elf"))

	runNet = true
	assert.True(t, wantSimNetwork("/x/zephyr.elf"))

	runNet, runNoNet = false, true
	assert.False(t, wantSimNetwork("/x/zephyr.exe"))
}

func TestExitCodeError(t *testing.T) {
	err := exitCodeError{code: 2}
	assert.Equal(t, 2, err.ExitCode())
	assert.Contains(t, err.Error(), "2")
}
