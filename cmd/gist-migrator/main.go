package main

import (
	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/pkg/cli"
)

func main() {
	logger.Init()

	cli.Execute()
}
