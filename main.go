package main

import (
	"github.com/axellelanca/urlanalytics/cmd"
	_ "github.com/axellelanca/urlanalytics/cmd/cli"
	_ "github.com/axellelanca/urlanalytics/cmd/server"
)

func main() {
	cmd.Execute()
}
