package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderGenerateWithExclusions(t *testing.T) {
	s := New("")
	out, err := s.Render(Generate, System, GenerateData{
		Exclusions: []string{"napoleon bonaparte", "napoleon"},
		Remaining:  3,
		Guidance:   "Choose well-known figures.",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "napoleon bonaparte, napoleon")
	assert.Contains(t, out, "(and 3 more previously used names...)")
	assert.Contains(t, out, "- Choose well-known figures.")
	assert.Contains(t, out, `"source_urls"`)
}

func TestRenderGenerateWithoutExclusions(t *testing.T) {
	out, err := New("").Render(Generate, System, GenerateData{Guidance: "g"})
	require.NoError(t, err)
	assert.NotContains(t, out, "DO NOT choose")
	assert.NotContains(t, out, "more previously used")
}

func TestRenderObscurity(t *testing.T) {
	out, err := New("").Render(Obscurity, User, ObscurityData{
		Answer:  "Marie Curie",
		Aliases: []string{"Maria Skłodowska", "Madame Curie"},
		Hints:   []string{"first", "second", "third"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Person to evaluate: Marie Curie")
	assert.Contains(t, out, "Aliases: Maria Skłodowska, Madame Curie")
	assert.Contains(t, out, "1. first")
	assert.Contains(t, out, "3. third")
	assert.Contains(t, out, "familiarity_score")
}

func TestRenderOverrideFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generate.user.txt"), []byte("custom {{.Guidance}}"), 0o644))

	out, err := New(dir).Render(Generate, User, GenerateData{Guidance: "now"})
	require.NoError(t, err)
	assert.Equal(t, "custom now", out)

	// files that are absent fall back to the embedded template
	out, err = New(dir).Render(Generate, System, GenerateData{Guidance: "g"})
	require.NoError(t, err)
	assert.Contains(t, out, "Figurdle")
}

func TestRenderUnknown(t *testing.T) {
	_, err := New("").Render("nope", User, nil)
	assert.Error(t, err)
}
