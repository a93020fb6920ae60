package main

import "github.com/upland-labs/storefront/internal/cli"

func main() {
	cli.Execute()
}
