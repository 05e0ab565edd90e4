package main

import "github.com/mkravets/resume-exporter/cmd"

func main() {
	cmd.Execute()
}
