package main

import (
	"os"

	"live-question-service/internal/cli"
	"live-question-service/internal/logger"
)

func main() {
	if err := cli.Execute(); err != nil {
		logger.ReportFailure(os.Stderr, err)
		os.Exit(1)
	}
}
