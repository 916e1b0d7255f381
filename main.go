package main

import "esp-users-audit/cmd"

func main() {
	cmd.Execute()
}
