package main

import (
	"log"

	"github.com/authenx/evidence-hub/cmd"
	"github.com/authenx/evidence-hub/config"
)

func main() {
	log.Printf("evidence hub %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
