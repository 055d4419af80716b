package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nhle/dropterm/internal/app"
	"github.com/nhle/dropterm/internal/credential"
	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/source/dropmail"
	"github.com/nhle/dropterm/internal/theme"
)

func main() {
	var (
		configPath    = pflag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
		logPath       = pflag.String("log", "", "write debug logs to this file")
		noAutoRefresh = pflag.Bool("no-auto-refresh", false, "start with auto-refresh off")
		alwaysPoll    = pflag.Bool("always-poll", false, "poll on every tick regardless of auto-refresh")
		storeToken    = pflag.String("store-token", "", "save a client token in the system keyring and exit")
		forgetToken   = pflag.Bool("forget-token", false, "remove the client token from the system keyring and exit")
		writeConfig   = pflag.Bool("write-config", false, "write the effective config to --config and exit")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThe client token is taken from %s, then api.client_token in the\n"+
			"config file, then the system keyring (--store-token), then the built-in default.\n",
			model.ClientTokenEnv)
	}
	pflag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Cannot read .env: %v\n", err)
		os.Exit(1)
	}

	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "dropterm")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ring, err := credential.Open()
	if err != nil {
		log.Printf("keyring unavailable: %v", err)
	}

	if *storeToken != "" {
		if ring == nil {
			fmt.Fprintln(os.Stderr, "Cannot store token: no keyring available")
			os.Exit(1)
		}
		if err := ring.Set(credential.ClientTokenKey, *storeToken); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot store token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Client token saved.")
		return
	}

	if *forgetToken {
		if ring == nil {
			fmt.Fprintln(os.Stderr, "Cannot remove token: no keyring available")
			os.Exit(1)
		}
		if err := ring.Delete(credential.ClientTokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			fmt.Fprintf(os.Stderr, "Cannot remove token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Client token removed.")
		return
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load config: %v\n", err)
		os.Exit(1)
	}
	if *noAutoRefresh {
		cfg.Polling.AutoRefresh = false
	}
	if *alwaysPoll {
		cfg.Polling.Mode = model.PollModeAlways
	}

	if *writeConfig {
		seed := *cfg
		if os.Getenv(model.ClientTokenEnv) != "" {
			// Keep secrets from the environment out of the file.
			seed.API.ClientToken = model.DefaultClientToken
		}
		if err := model.SaveConfig(*configPath, &seed); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s.\n", *configPath)
		return
	}

	token, from := credential.ResolveToken(
		os.Getenv(model.ClientTokenEnv), ring, cfg.API.ClientToken, model.DefaultClientToken)
	cfg.API.ClientToken = token
	log.Printf("using client token from %s", from)

	theme.Apply(cfg.Display.Theme)

	reporter := app.NewReporter()
	client := dropmail.NewClient(cfg.API, dropmail.WithReporter(reporter))

	appModel := app.New(app.Options{
		Config:    cfg,
		Mailbox:   dropmail.NewAdapter(client),
		Reporter:  reporter,
		Clipboard: app.SystemClipboard{},
	})

	p := tea.NewProgram(appModel, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
