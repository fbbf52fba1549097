package main

import "github.com/wintermute101/uf2info/cmd"

func main() {
	cmd.Execute()
}
