package main

import "github.com/oshokin/schedule-bot-deploy/cmd/schedule-bot-install/cmd"

func main() {
	cmd.Execute()
}
