package main

import "github.com/maastricht-university/vocal-indicators/cli"

func main() {
	cli.Execute()
}
