package main

import "github.com/oshokin/schedule-bot-deploy/cmd/schedule-bot-upload/cmd"

func main() {
	cmd.Execute()
}
