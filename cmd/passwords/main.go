package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/config"
	"github.com/noah-isme/student-portal-api/internal/credential"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/pkg/airtable"
)

var errStudentNotFound = errors.New("no student with that preferred name")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Error().Err(err).Msg("password export failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	flags := flag.NewFlagSet("passwords", flag.ContinueOnError)
	name := flags.String("name", "", "Print only the student with this preferred name.")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: passwords [-name PREFERRED_NAME] > passwords.csv")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	deriver, err := credential.NewDeriver(cfg.PasswordSecret)
	if err != nil {
		return err
	}

	source, err := airtable.New(airtable.Config{
		APIKey:  cfg.AirtableAPIKey,
		BaseID:  cfg.AirtableBaseID,
		BaseURL: cfg.AirtableAPIURL,
		Timeout: cfg.AirtableTimeout,
	}, logger)
	if err != nil {
		return err
	}

	roster := repository.NewRosterRepository(source, cfg.StudentsTable, cfg.StudentsView)
	rows, err := roster.List(ctx)
	if err != nil {
		return err
	}

	written, err := export(out, rows, deriver, *name)
	if err != nil {
		return err
	}

	logger.Info().Int("rows", len(rows)).Int("written", written).Msg("passwords exported")
	return nil
}
