// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func draftIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "id",
		Usage: "Draft ID (defaults to the most recent draft)",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file and initialize storage",
		Action: r.Setup,
	}
}

// authCommand handles the Spotify PKCE login flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Connect or disconnect your Spotify account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize in the browser and wait for the redirect",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL without opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the redirect",
						Value: 5 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "callback",
				Usage: "Complete a login from a pasted redirect URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Action: r.AuthCallback,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored token and user",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the connected account",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "View or change stored settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective settings",
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "reveal",
					Usage: "Show the API key unmasked",
				}),
				Action: r.SettingsShow,
			},
			{
				Name:      "set",
				Usage:     "Change one setting (client_id, api_key, model, web_search)",
				ArgsUsage: "<key> <value>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
					&cli.StringArg{Name: "value"},
				},
				Action: r.SettingsSet,
			},
		},
	}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Profile password (prompted when omitted)",
		Sources: cli.EnvVars("RIFF_PROFILE_PASSWORD"),
	}
}

// profileCommand handles encrypted settings backups
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Export or import password-protected settings",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write settings to an encrypted profile file",
				Flags: []cli.Flag{
					passwordFlag(),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to write the profile into",
						Value: ".",
					},
					&cli.BoolFlag{
						Name:  "salted",
						Usage: "Use a random per-file salt (not readable by the browser app)",
					},
				},
				Action: r.ProfileExport,
			},
			{
				Name:  "import",
				Usage: "Replace settings with an encrypted profile file",
				Flags: []cli.Flag{passwordFlag()},
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.ProfileImport,
			},
		},
	}
}

func newDraftFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "new",
		Usage: "Start a new draft instead of adding to the current one",
	}
}

func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Ask the model for a playlist from a description",
		ArgsUsage: "<prompt>",
		Flags:     []cli.Flag{newDraftFlag()},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "prompt"},
		},
		Action: r.Generate,
	}
}

func remixCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "remix",
		Usage:     "Create a variation of an existing Spotify playlist",
		ArgsUsage: "<playlist-url>",
		Flags: []cli.Flag{
			newDraftFlag(),
			&cli.StringFlag{
				Name:  "prompt",
				Usage: "How to change the playlist",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Action: r.Remix,
	}
}

// draftCommand handles the playlist being curated
func draftCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Review and edit the current playlist draft",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the draft",
				Flags:  append(jsonFlags(), draftIDFlag()),
				Action: r.DraftShow,
			},
			{
				Name:   "list",
				Usage:  "List stored drafts",
				Flags:  jsonFlags(),
				Action: r.DraftList,
			},
			{
				Name:  "add",
				Usage: "Search Spotify and add a track",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "pick",
						Usage: "Which search result to add",
						Value: 1,
					},
				},
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Action: r.DraftAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track by ID or position",
				ArgsUsage: "<track-id|position>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Action: r.DraftRemove,
			},
			{
				Name:  "rename",
				Usage: "Set the playlist name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.DraftRename,
			},
			{
				Name:  "clear",
				Usage: "Empty the draft",
				Flags: []cli.Flag{
					draftIDFlag(),
					&cli.BoolFlag{
						Name:  "delete",
						Usage: "Delete the draft instead of emptying it",
					},
				},
				Action: r.DraftClear,
			},
			{
				Name:  "save",
				Usage: "Create the playlist on Spotify",
				Flags: []cli.Flag{
					draftIDFlag(),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Override the playlist name",
					},
				},
				Action: r.DraftSave,
			},
			{
				Name:  "export",
				Usage: "Export the draft as text, json, csv or markdown",
				Flags: []cli.Flag{
					draftIDFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "File or directory to write instead of stdout",
					},
				},
				Action: r.DraftExport,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the Spotify catalog",
		Flags: append(jsonFlags(), &cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of results",
			Value: 10,
		}),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Action: r.Search,
	}
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached catalog lookups",
		Commands: []*cli.Command{
			{
				Name:   "purge",
				Usage:  "Remove stale lookups",
				Action: r.CachePurge,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Edit the current draft interactively",
		Flags: []cli.Flag{
			draftIDFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/riff-tui.log",
			},
		},
		Action: r.TUI,
	}
}
