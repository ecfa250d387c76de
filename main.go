package main

import "github.com/LegacyCodeHQ/tsout/cmd"

func main() {
	cmd.Execute()
}
