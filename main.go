package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"bizcard/cmd"
	_ "bizcard/cmd/scan"
	_ "bizcard/cmd/server"
)

func main() {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}

	if err := cmd.Run(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
