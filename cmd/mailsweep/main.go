package main

import "github.com/lu-zhengda/mailsweep/internal/cli"

func main() {
	cli.Execute()
}
