package main

import "github.com/terraconstructs/portal/cmd/portalctl/cmd"

func main() {
	cmd.Execute()
}
