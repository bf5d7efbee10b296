// meshchat TUI - a terminal chat client for a local mesh gateway.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/meshchat-tui/internal/config"
	"github.com/jeranaias/meshchat-tui/internal/gateway"
	"github.com/jeranaias/meshchat-tui/internal/orchestrator"
	"github.com/jeranaias/meshchat-tui/internal/supervisor"
	"github.com/jeranaias/meshchat-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		gatewayURL  = flag.String("gateway", "", "mesh gateway URL (overrides config)")
		configPath  = flag.String("config", "", "path to config file")
		modelName   = flag.String("model", "", "model for direct queries (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("meshchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *gatewayURL != "" {
		cfg.Gateway.URL = *gatewayURL
	}
	if *modelName != "" {
		cfg.Gateway.Model = *modelName
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	client := gateway.NewClientWithConfig(&gateway.ClientConfig{
		BaseURL:      cfg.Gateway.URL,
		Timeout:      cfg.Gateway.Timeout(),
		DefaultModel: cfg.Gateway.Model,
		PollRate:     cfg.Gateway.PollRate,
	})

	pollCfg := orchestrator.PollConfig{
		InitialDelay: cfg.Polling.InitialDelay(),
		MaxDelay:     cfg.Polling.MaxDelay(),
		MaxAttempts:  cfg.Polling.MaxAttempts,
		Multiplier:   cfg.Polling.Multiplier,
	}

	// The sink bridges orchestrator events into the program; it is attached
	// once the program exists.
	sink := chat.NewProgramSink()
	sup := supervisor.New()
	orch := orchestrator.New(client, sink, pollCfg)

	m := chat.New(cfg, client, orch, sup)
	p := tea.NewProgram(m, tea.WithAltScreen())
	sink.Attach(p)

	if watcher := startConfigWatcher(*configPath, p); watcher != nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// startConfigWatcher reloads config on file changes and nudges the UI.
// Watching is best-effort; the app runs fine without it.
func startConfigWatcher(path string, p *tea.Program) *config.Watcher {
	if path == "" {
		defaultPath, err := config.ConfigPathTOML()
		if err != nil {
			return nil
		}
		path = defaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.NewWatcher(path, func(*config.Config) {
		p.Send(chat.ConfigReloadedMsg{})
	})
	if err != nil {
		return nil
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil
	}
	return w
}
