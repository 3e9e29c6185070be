package main

import "github.com/AustinNewburry/DavisDefenseBot/cmd"

func main() {
	cmd.Execute()
}
