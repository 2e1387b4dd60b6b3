package backends

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nbrowse/nbrowse/tree"
)

func TestRegisterBuiltins(t *testing.T) {
	RegisterBuiltins()

	assert.True(t, tree.ContainerRegistered(SevenZipType))
}

func TestRegisterBuiltins_Selective(t *testing.T) {
	RegisterBuiltins(SevenZipType)

	assert.True(t, tree.ContainerRegistered(SevenZipType))
}

func TestTranslateOpenErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		password string
		want     error
	}{
		{"password error without password", errors.New("7z: password required"), "", tree.ErrPasswordRequired},
		{"decrypt error without password", errors.New("sevenzip: could not decrypt stream"), "", tree.ErrPasswordRequired},
		{"checksum mismatch with password", errors.New("sevenzip: checksum error"), "hunter2", tree.ErrIncorrectPassword},
		{"password error with password", errors.New("7z: invalid password"), "hunter2", tree.ErrIncorrectPassword},
		{"format error", errors.New("sevenzip: not a valid 7z file"), "", tree.ErrFormat},
		{"format error with password", errors.New("unexpected EOF"), "hunter2", tree.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateOpenErr(tt.err, tt.password)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorContains(t, got, tt.err.Error(), "the underlying message is preserved")
		})
	}
}

func TestSevenZipOpener_OpenPath_MissingFile(t *testing.T) {
	_, err := sevenZipOpener{}.OpenPath("/nonexistent/archive.7z", "")
	assert.Error(t, err)
}

func TestSevenZipOpener_OpenBytes_Garbage(t *testing.T) {
	_, err := sevenZipOpener{}.OpenBytes([]byte("definitely not a 7z archive"), "")
	assert.ErrorIs(t, err, tree.ErrFormat)
}
