package main

import "github.com/terraconstructs/authgate/cmd"

func main() {
	cmd.Execute()
}
