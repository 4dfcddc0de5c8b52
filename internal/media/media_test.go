package media_test

import (
	"strings"
	"testing"

	storagememory "github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/guardpost/internal/media"
)

func TestUpload(t *testing.T) {
	service := media.New(storagememory.New())

	object, err := service.Upload("avatars", "me.png", []byte("fake png bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(object.Key, "avatars/"))
	assert.True(t, strings.HasSuffix(object.Key, ".png"))
	assert.Equal(t, len("fake png bytes"), object.Size)
}

func TestUploadGeneratesUniqueKeys(t *testing.T) {
	service := media.New(storagememory.New())

	first, err := service.Upload("docs", "report.pdf", []byte("one"))
	require.NoError(t, err)

	second, err := service.Upload("docs", "report.pdf", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
}

func TestUploadEmptyFile(t *testing.T) {
	service := media.New(storagememory.New())

	object, err := service.Upload("docs", "empty.txt", nil)

	require.ErrorIs(t, err, media.ErrEmptyFile)
	assert.Nil(t, object)
}

func TestUploadWithoutExtension(t *testing.T) {
	service := media.New(storagememory.New())

	object, err := service.Upload("docs", "README", []byte("content"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(object.Key, "docs/"))
	assert.False(t, strings.Contains(object.Key, "README"))
}

func TestDelete(t *testing.T) {
	service := media.New(storagememory.New())

	object, err := service.Upload("docs", "note.txt", []byte("content"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(object.Key))

	// second delete must report the object as missing
	require.ErrorIs(t, service.Delete(object.Key), media.ErrObjectNotFound)
}

func TestDeleteUnknownKey(t *testing.T) {
	service := media.New(storagememory.New())

	require.ErrorIs(t, service.Delete("docs/does-not-exist.txt"), media.ErrObjectNotFound)
}
