package main

import (
	"context"
	"io"

	"github.com/Sternrassler/breed-feed/pkg/cache"
	"github.com/Sternrassler/breed-feed/pkg/client"
	"github.com/Sternrassler/breed-feed/pkg/config"
	"github.com/Sternrassler/breed-feed/pkg/pagination"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Config  config.Config
	Store   cache.Store
	Fetcher pagination.PageFetcher
	Policy  *client.RetryPolicy
}

// NewController builds a controller over the dependencies.
func (d *Dependencies) NewController(hooks pagination.Hooks) *pagination.Controller {
	return pagination.NewController(d.Fetcher, pagination.ControllerOptions{
		Policy:   d.Policy,
		Store:    d.Store,
		CacheTTL: d.Config.Store.CacheTTL,
		Hooks:    hooks,
	})
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" env:"BREEDS_CONFIG" help:"YAML configuration file"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Fetch FetchCmd `cmd:"" help:"Fetch pages and print the accumulated breeds"`
	Watch WatchCmd `cmd:"" help:"Fetch every page, resuming when connectivity returns"`
	Reset ResetCmd `cmd:"" help:"Clear the persisted breeds"`
	Show  ShowCmd  `cmd:"" help:"Print the persisted breeds without fetching"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	Pages int  `short:"n" default:"1" help:"Number of pages to fetch"`
	All   bool `short:"a" help:"Fetch until the last page"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct{}

// ResetCmd is the "reset" subcommand.
type ResetCmd struct{}

// ShowCmd is the "show" subcommand.
type ShowCmd struct{}
