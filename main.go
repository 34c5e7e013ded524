/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/SvenDH/card-wars/cmd"

func main() {
	cmd.Execute()
}
