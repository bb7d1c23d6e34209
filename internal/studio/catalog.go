package studio

import (
	_ "embed"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultVoice is the prebuilt voice used when none is chosen.
const DefaultVoice = "Zephyr"

// LoadingInterval is how often a progress display should rotate
// LoadingMessages while a video or movie job runs.
const LoadingInterval = 4 * time.Second

// Voice is a prebuilt speech voice.
type Voice struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Group string `yaml:"group"`
}

type catalogFile struct {
	Voices   []Voice               `yaml:"voices"`
	Systems  []string              `yaml:"systems"`
	Kinds    []string              `yaml:"kinds"`
	Loading  []string              `yaml:"loading"`
	Defaults map[Workflow]string   `yaml:"defaults"`
	Examples map[Workflow][]string `yaml:"examples"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = sync.OnceValue(func() catalogFile {
	var c catalogFile
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		panic("studio: malformed catalog: " + err.Error())
	}
	return c
})

// Voices returns the prebuilt voices in display order.
func Voices() []Voice { return slices.Clone(catalog().Voices) }

// IsVoice reports whether name is a prebuilt voice.
func IsVoice(name string) bool {
	return slices.ContainsFunc(catalog().Voices, func(v Voice) bool { return v.Name == name })
}

// Systems returns the game systems offered by the TTRPG workflow.
func Systems() []string { return slices.Clone(catalog().Systems) }

// Kinds returns the content kinds offered by the TTRPG workflow.
func Kinds() []string { return slices.Clone(catalog().Kinds) }

// LoadingMessages returns the progress lines shown during video work.
func LoadingMessages() []string { return slices.Clone(catalog().Loading) }

// LoadingMessage returns the message to show after elapsed time.
func LoadingMessage(elapsed time.Duration) string {
	msgs := catalog().Loading
	if len(msgs) == 0 {
		return ""
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return msgs[int(elapsed/LoadingInterval)%len(msgs)]
}

// Examples returns the example prompts of w, or nil.
func Examples(w Workflow) []string { return slices.Clone(catalog().Examples[w]) }

// DefaultPrompt returns the prompt a workflow starts with.
func DefaultPrompt(w Workflow) string { return catalog().Defaults[w] }
