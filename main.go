package main

import (
	"github.com/joho/godotenv"
	"github.com/t-kuni/deptrace/cmd"
)

func main() {
	godotenv.Load(".env")

	err := cmd.NewRootCommand().CobraCommand.Execute()
	if err != nil {
		panic(err)
	}
}
