package studio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	voices := Voices()
	require.Len(t, voices, 10)
	assert.Equal(t, Voice{Name: "Zephyr", Label: "Zephyr (Female)", Group: "Voice Group 1"}, voices[0])
	assert.Equal(t, "Algenib", voices[9].Name)
	assert.True(t, IsVoice("Schedar"))
	assert.False(t, IsVoice("zephyr"))

	assert.Equal(t, []string{"D&D 5e", "Pathfinder 2e", "Cyberpunk RED", "Call of Cthulhu", "System Agnostic"}, Systems())
	assert.Equal(t, []string{"Character", "Location", "Quest", "Magic Item", "Encounter", "Monster"}, Kinds())

	for _, w := range []Workflow{WorkflowVideo, WorkflowImage, WorkflowMovie, WorkflowMusic, WorkflowSound, WorkflowTTRPG} {
		assert.Len(t, Examples(w), 4, string(w))
		assert.NotEmpty(t, DefaultPrompt(w), string(w))
	}
	assert.Nil(t, Examples(WorkflowChat))
	assert.Equal(t, "Laser blast", DefaultPrompt(WorkflowSound))
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	v := Voices()
	v[0].Name = "changed"
	assert.Equal(t, "Zephyr", Voices()[0].Name)
}

func TestLoadingMessage_Rotates(t *testing.T) {
	msgs := LoadingMessages()
	require.Len(t, msgs, 6)

	assert.Equal(t, msgs[0], LoadingMessage(0))
	assert.Equal(t, msgs[0], LoadingMessage(3*time.Second))
	assert.Equal(t, msgs[1], LoadingMessage(4*time.Second))
	assert.Equal(t, msgs[5], LoadingMessage(23*time.Second))
	assert.Equal(t, msgs[0], LoadingMessage(24*time.Second))
	assert.Equal(t, msgs[0], LoadingMessage(-time.Second))
}

func TestWorkflow_Gated(t *testing.T) {
	gated := map[Workflow]bool{WorkflowVideo: true, WorkflowMovie: true, WorkflowImage: true}
	for _, w := range AllWorkflows {
		assert.Equal(t, gated[w], w.Gated(), string(w))
	}
}
