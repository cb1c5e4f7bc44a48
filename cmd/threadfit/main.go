package main

import "github.com/threadfit/backend/internal/cli/cmd"

func main() {
	cmd.Execute()
}
