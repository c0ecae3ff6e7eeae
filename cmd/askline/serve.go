package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openclass/askline/internal/bot"
	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/chat/discord"
	"github.com/openclass/askline/internal/chat/telegram"
	"github.com/openclass/askline/internal/config"
	"github.com/openclass/askline/internal/dashboard"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the askline bot",
		Long:  "Connects to the chat platform and serves questions, FAQ administration, and broadcasts until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "askline.yaml", "path to askline config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	adapter, err := newAdapter(cfg)
	if err != nil {
		return err
	}
	defer adapter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Dashboard.Enabled {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: cfg.Dashboard.Port,
				Out:  cmd.OutOrStdout(),
			}); err != nil {
				log.Printf("dashboard: %v", err)
			}
		}()
	}

	err = bot.New(cfg, adapter, gormDB).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newAdapter(cfg *config.Config) (chat.Adapter, error) {
	switch cfg.Platform {
	case "telegram":
		return telegram.New(telegram.Options{Token: cfg.Token})
	case "discord":
		return discord.New(discord.AdapterOpts{
			BotToken:       cfg.Token,
			GroupChannelID: cfg.GroupChatID,
		})
	default:
		return nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
	}
}
