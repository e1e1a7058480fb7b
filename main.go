package main

import "chosei-backend/cmd"

func main() {
	cmd.Run()
}
