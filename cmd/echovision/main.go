package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/echovision/internal/audio"
	ecli "codeberg.org/snonux/echovision/internal/cli"
	"codeberg.org/snonux/echovision/internal/language"
	"codeberg.org/snonux/echovision/internal/models"
	"codeberg.org/snonux/echovision/internal/processor"
	"codeberg.org/snonux/echovision/internal/server"
)

func main() {
	// A missing .env is fine, keys may come from the environment or config
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	log.SetHandler(cli.New(os.Stderr))

	// Create flags instance
	flags := ecli.NewFlags()

	// Create root command
	rootCmd := ecli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		ecli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *ecli.Flags) error {
	settings := ecli.LoadSettings()
	setLogLevel(settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle --list-languages flag
	if flags.ListLanguages {
		for _, l := range language.All() {
			fmt.Printf("%-6s %s\n", l.Code, l.Name)
		}
		return nil
	}

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(settings.OpenAIKey, settings.OpenAIBaseURL)
		return lister.ListAvailableModels(ctx, os.Stdout)
	}

	// Handle --clear-speech-cache flag
	if flags.ClearCache {
		return clearSpeechCache(settings.Speech.CacheDir)
	}

	proc, err := processor.NewProcessor(ctx, settings)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		// No image provided - serve the upload API
		srv := server.New(proc, server.Config{
			Addr:            settings.Addr,
			DefaultLanguage: settings.Language,
			MaxUploadBytes:  settings.MaxUploadBytes,
		})
		return srv.Run(ctx)
	}

	bundle, err := proc.ProcessFile(ctx, args[0], settings.Language)
	if err != nil {
		return err
	}

	if flags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	}

	bundle.Print(os.Stdout)
	return nil
}

func clearSpeechCache(dir string) error {
	count, size, err := audio.CacheStats(dir)
	if err != nil {
		return fmt.Errorf("failed to read speech cache: %w", err)
	}
	if err := audio.ClearCache(dir); err != nil {
		return fmt.Errorf("failed to clear speech cache: %w", err)
	}
	fmt.Printf("Removed %d cached speech files (%d bytes) from %s\n", count, size, dir)
	return nil
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
