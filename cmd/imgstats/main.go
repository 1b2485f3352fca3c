package main

import "github.com/MeKo-Tech/imgstats/cmd/imgstats/cmd"

func main() {
	cmd.Execute()
}
