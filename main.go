package main

import "osrecover/cmd"

func main() {
	cmd.Execute()
}
