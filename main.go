package main

import (
	"context"

	"medschool-scraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
