package main

import "github.com/oliversimiyu/support-defmis/cmd"

func main() {
	cmd.Execute()
}
