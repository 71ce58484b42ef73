package main

import "github.com/RyanBlaney/affect-fusion/cmd"

func main() {
	cmd.Execute()
}
