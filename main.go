package main

import "github.com/eventdesk/apiserver/cmd"

func main() {
	cmd.Execute()
}
