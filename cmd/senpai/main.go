// Senpai is a terminal studio for generating video, images, speech, music
// and text with Gemini models.
//
// Usage:
//
//	senpai image "A spider logo glowing with purple neon"
//	senpai video --source photo.png "Make the scene cinematic"
//	senpai speech -f request.yaml
//	senpai chat
//	senpai studio
//
// Configuration is read from the environment and an optional .env file.
// See "senpai --help" for the full command list.
package main

import (
	"fmt"
	"os"

	"github.com/Kim6922/senpai-ai/cmd/senpai/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
