package main

import (
	"embed"

	"github.com/ndavydoff/music-finder/cmd"
)

//go:embed static
var embedStatic embed.FS

func main() {
	cmd.Execute(embedStatic)
}
