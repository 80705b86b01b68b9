package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestNewTranslations(t *testing.T) {
	t.Run("Should load the embedded locales", func(t *testing.T) {
		// act
		trans, err := NewTranslations("es", "")

		// assert
		require.NoError(t, err)
		assert.Equal(t, "Detalles", trans.GetMessage("details_label", 0, nil))
	})

	t.Run("Should fail with empty language", func(t *testing.T) {
		// act
		trans, err := NewTranslations("", "")

		// assert
		assert.Error(t, err)
		assert.Nil(t, trans)
	})

	t.Run("Should prefer messages from the override directory", func(t *testing.T) {
		// arrange
		tmpDir := t.TempDir()
		createTestFile(t, tmpDir, "active.en.toml", `
		[release_completed]
		other = "Shipped {{.Tag}}"`)

		// act
		trans, err := NewTranslations("en", tmpDir)

		// assert
		require.NoError(t, err)
		assert.Equal(t, "Shipped v1.2.0", trans.GetMessage("release_completed", 0, map[string]interface{}{"Tag": "v1.2.0"}))
	})
}

func TestSetLanguage(t *testing.T) {
	t.Run("Should change to a valid language", func(t *testing.T) {
		// arrange
		trans, err := NewTranslations("en", "")
		require.NoError(t, err)

		// act
		err = trans.SetLanguage("es")

		// assert
		require.NoError(t, err)
		assert.Equal(t, "Sugerencia", trans.GetMessage("suggestion_label", 0, nil))
	})

	t.Run("Should fail with unsupported language", func(t *testing.T) {
		// arrange
		trans, err := NewTranslations("es", "")
		require.NoError(t, err)

		// act
		err = trans.SetLanguage("fr")

		// assert
		assert.Error(t, err)
	})
}

func TestGetMessage(t *testing.T) {
	trans, err := NewTranslations("es", "")
	require.NoError(t, err)

	t.Run("Should get singular message correctly", func(t *testing.T) {
		result := trans.GetMessage("commits_analyzed", 1, map[string]interface{}{"Count": 1})
		assert.Equal(t, "1 commit analizado", result)
	})

	t.Run("Should get plural message correctly", func(t *testing.T) {
		result := trans.GetMessage("commits_analyzed", 3, map[string]interface{}{"Count": 3})
		assert.Equal(t, "3 commits analizados", result)
	})

	t.Run("Should handle templates correctly", func(t *testing.T) {
		result := trans.GetMessage("nothing_to_release", 0, map[string]interface{}{"PreviousTag": "v1.1.0"})
		assert.Equal(t, "Nada para publicar desde v1.1.0", result)
	})

	t.Run("Should handle missing messages", func(t *testing.T) {
		assert.Equal(t, "Translation missing: NonExistent", trans.GetMessage("NonExistent", 1, nil))
	})
}
