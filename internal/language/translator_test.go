package language

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

func TestFallbackDefaultsToEnglish(t *testing.T) {
	tr := NewTranslator(`en`)
	assert.Equal(t, `I'm having trouble responding right now.`, tr.Fallback())
}

func TestMissingDirectoryIsNotAnError(t *testing.T) {
	tr := NewTranslator(`es`)
	require.NoError(t, tr.LoadDir(filepath.Join(t.TempDir(), `nope`)))
	assert.Equal(t, `I'm having trouble responding right now.`, tr.Fallback())
}

func TestLoadDirTranslates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `es.yaml`, "FallbackReply: \"Ahora mismo no puedo responder.\"\nNoSuchNPC: \"No hay nadie llamado {{.Name}} aquí.\"\n")

	tr := NewTranslator(`es`)
	require.NoError(t, tr.LoadDir(dir))

	assert.Equal(t, `Ahora mismo no puedo responder.`, tr.Fallback())
	assert.Equal(t, `No hay nadie llamado Bob aquí.`, tr.T(`NoSuchNPC`, map[string]any{`Name`: `Bob`}))

	// Not in the translation file, so English it is
	assert.Equal(t, `Usage: talk <name> <message>`, tr.T(`TalkUsage`))

	tr.SetLanguage(`en`)
	assert.Equal(t, `I'm having trouble responding right now.`, tr.Fallback())
	assert.Equal(t, `en`, tr.Language())
}

func TestLoadDirReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `es.yaml`, "FallbackReply: \"Ahora mismo no puedo responder.\"\n")
	writeFile(t, dir, `fr.yaml`, "FallbackReply: [unterminated\n")
	writeFile(t, dir, `notes.txt`, "ignored")

	tr := NewTranslator(`es`)
	err := tr.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `fr.yaml`)

	// The good file still loaded
	assert.Equal(t, `Ahora mismo no puedo responder.`, tr.Fallback())
}

func TestUnknownMessageIdReturnsId(t *testing.T) {
	tr := NewTranslator(`en`)
	assert.Equal(t, `SomethingElse`, tr.T(`SomethingElse`))
}

func TestTemplateData(t *testing.T) {
	tr := NewTranslator(`en`)
	assert.Equal(t, `There is nobody called "Zed" here.`, tr.T(`NoSuchNPC`, map[string]any{`Name`: `Zed`}))
}
