package main

import (
	"context"
	"errors"
	"os"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			logutils.Log.WithError(err).Error("episode-fetcher failed")
		}
		os.Exit(1)
	}
}
