package main

import "github.com/yungbote/ottolearn-tutor/internal/cli"

func main() {
	cli.Execute()
}
