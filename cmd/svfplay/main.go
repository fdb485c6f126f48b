package main

import "github.com/OpenTraceLab/OpenTraceSVF/cmd/svfplay/cmd"

func main() {
	cmd.Execute()
}
