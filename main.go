package main

import "alexa-manager/cmd"

func main() {
	cmd.Execute()
}
