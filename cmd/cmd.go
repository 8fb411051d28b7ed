// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func idArgs() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// setupCommand handles configuration and schema management
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Run pending database migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// seedCommand loads the demo catalog
func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "seed",
		Usage:  "Load a demo catalog into an empty database",
		Flags:  outputFlags(),
		Action: r.Seed,
	}
}

func assetFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "title",
			Usage:    "Asset title",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "year",
			Usage: "Publication or release year",
		},
		&cli.FloatFlag{
			Name:  "cost",
			Usage: "Replacement cost",
		},
		&cli.IntFlag{
			Name:  "copies",
			Usage: "Number of copies held",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "image-url",
			Usage: "Cover image URL",
		},
		&cli.StringFlag{
			Name:  "status",
			Usage: "Status name (e.g. \"Available\")",
		},
		&cli.Int64Flag{
			Name:  "branch",
			Usage: "Branch id the asset is shelved at",
		},
	}
	flags = append(flags, extra...)
	return append(flags, outputFlags()...)
}

// assetsCommand handles catalog reads and writes
func assetsCommand(r *Runner) *cli.Command {
	lookup := func(name, usage string, action cli.ActionFunc) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<id>",
			Arguments: idArgs(),
			Flags:     outputFlags(),
			Action:    action,
		}
	}

	return &cli.Command{
		Name:    "assets",
		Aliases: []string{"a"},
		Usage:   "Library asset operations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a book or video",
				Commands: []*cli.Command{
					{
						Name:  "book",
						Usage: "Add a book",
						Flags: assetFlags(
							&cli.StringFlag{Name: "author", Usage: "Author"},
							&cli.StringFlag{Name: "isbn", Usage: "ISBN"},
							&cli.StringFlag{Name: "dewey", Usage: "Dewey decimal index"},
						),
						Action: r.AddBook,
					},
					{
						Name:  "video",
						Usage: "Add a video",
						Flags: assetFlags(
							&cli.StringFlag{Name: "director", Usage: "Director"},
						),
						Action: r.AddVideo,
					},
				},
			},
			{
				Name:  "list",
				Usage: "List assets ordered by id",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only list books or videos",
					},
				}, outputFlags()...),
				Action: r.ListAssets,
			},
			lookup("get", "Show an asset with its status and location", r.GetAsset),
			lookup("type", "Print \"Book\" or \"Video\"", r.AssetType),
			lookup("kind", "Print the stored kind (fails for unknown ids)", r.AssetKind),
			lookup("author", "Print the author of a book or director of a video", r.AssetAuthorOrDirector),
			lookup("isbn", "Print the ISBN (\"N/A\" for videos)", r.AssetIsbn),
			lookup("dewey", "Print the Dewey index of a book", r.AssetDewey),
			lookup("location", "Print the branch an asset is shelved at", r.AssetLocation),
			lookup("title", "Print the title", r.AssetTitle),
			lookup("card", "Print the library card holding an asset", r.AssetCard),
			lookup("describe", "Print every derived fact about an asset", r.DescribeAsset),
		},
	}
}

// exportCommand writes the catalog grouped by branch
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the catalog, one file per branch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "json, csv, markdown or txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: catalog_export_{timestamp})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers (max 10)",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Shelf reads per second",
				Value: 5,
			},
			&cli.Int64SliceFlag{
				Name:  "branch",
				Usage: "Only export these branch ids (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "unshelved",
				Usage: "Also export assets with no location",
			},
			&cli.BoolFlag{
				Name:  "images",
				Usage: "Download branch images for markdown exports",
			},
		},
		Action: r.Export,
	}
}

// reportCommand prints catalog totals
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "report",
		Usage:  "Count assets by kind, status and branch",
		Flags:  outputFlags(),
		Action: r.Report,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the asset list in a browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the terminal browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse the catalog in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format used from the TUI",
				Value: "markdown",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/lbx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
