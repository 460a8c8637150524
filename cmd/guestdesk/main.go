package main

import "github.com/mcoot/guestdesk/internal/cli"

func main() {
	cli.Execute()
}
