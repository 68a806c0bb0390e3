package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := Execute(); err != nil {
		log.WithError(err).Error("predictor failed")
		os.Exit(1)
	}
}
