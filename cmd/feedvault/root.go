// ABOUTME: Root Cobra command and global flags
// ABOUTME: Wires config, settings repository, article state store, vault, and sync engine

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/feedvault/internal/config"
	"github.com/harper/feedvault/internal/engine"
	"github.com/harper/feedvault/internal/enhance"
	"github.com/harper/feedvault/internal/settings"
	"github.com/harper/feedvault/internal/state"
	"github.com/harper/feedvault/internal/storage"
)

var (
	dataDirFlag string
	vaultFlag   string

	cfg        *config.Config
	repo       *settings.Repository
	stateStore *state.Store
	vault      *storage.Vault
	eng        *engine.Engine
)

var rootCmd = &cobra.Command{
	Use:   "feedvault",
	Short: "Sync RSS/Atom feeds into a markdown vault",
	Long: `feedvault polls your RSS and Atom subscriptions and materializes new
articles as markdown files in a local document tree, where any editor
or note-taking tool can pick them up.

Feeds, sync schedules, and per-feed settings live in settings.yaml;
read and deleted article state lives in a local database so deletions
survive re-syncs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		if vaultFlag != "" {
			cfg.VaultDir = vaultFlag
		}

		repo, err = settings.Open(cfg.SettingsPath())
		if err != nil {
			return fmt.Errorf("open settings: %w", err)
		}

		stateStore, err = state.Open(cfg.StatePath())
		if err != nil {
			return fmt.Errorf("open article state: %w", err)
		}

		vault, err = storage.NewVault(cfg.GetVaultDir())
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		eng = engine.New(repo, vault, stateStore)
		eng.Enhancer = enhance.New()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if stateStore != nil {
			if err := stateStore.Close(); err != nil {
				return fmt.Errorf("close article state: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default: ~/.local/share/feedvault)")
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "vault directory articles are written to (default: <data-dir>/vault)")
}
