package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/gallery"
	"github.com/hpungsan/stocker/internal/notify"
	"github.com/hpungsan/stocker/internal/prompt"
	"github.com/hpungsan/stocker/internal/query"
	"github.com/hpungsan/stocker/internal/store"
	"github.com/hpungsan/stocker/internal/web"
)

// appEnv carries what the commands need. It is nil for help and version.
type appEnv struct {
	store   *store.Store
	cfg     *config.Config
	exports string
	logger  *slog.Logger
}

// gallery returns a Gallery that reports to the command's error stream.
func (e *appEnv) gallery(c *cli.Context) *gallery.Gallery {
	return gallery.New(e.store, gallery.Options{
		Config:     e.cfg,
		Notifier:   notify.NewTerminal(c.App.ErrWriter, c.Bool("no-color")),
		Logger:     e.logger,
		ExportsDir: e.exports,
	})
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "stocker",
		Usage:   "Prompt gallery with images",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-color", Usage: "Disable colored notifications"},
		},
		Commands: []*cli.Command{
			addCmd(env),
			editCmd(env),
			getCmd(env),
			listCmd(env),
			deleteCmd(env),
			favoriteCmd(env),
			tagsCmd(env),
			imageCmd(env),
			exportCmd(env),
			importCmd(env),
			themeCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a prompt (text from arguments or stdin)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Display title"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Value: prompt.CategoryImage, Usage: "Category: image|video|chat|code"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.BoolFlag{Name: "favorite", Aliases: []string{"f"}, Usage: "Mark as favorite"},
			&cli.PathFlag{Name: "image", Aliases: []string{"i"}, Usage: "Image file to attach"},
		},
		Action: func(c *cli.Context) error {
			text, err := readText(c)
			if err != nil {
				return outputError(err)
			}

			input := gallery.SaveInput{
				Title:    c.String("title"),
				Text:     text,
				Category: c.String("category"),
				TagsText: c.String("tags"),
				Favorite: c.Bool("favorite"),
			}
			if path := c.Path("image"); path != "" {
				if input.Image, err = readImageFile(path); err != nil {
					return outputError(err)
				}
			}

			output, err := env.gallery(c).Save(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// editCmd creates the edit command. Unset flags keep the stored values.
func editCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a prompt in place",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Usage: "New prompt text"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Display title"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category: image|video|chat|code"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags (replaces existing)"},
			&cli.BoolFlag{Name: "favorite", Aliases: []string{"f"}, Usage: "Favorite flag"},
			&cli.PathFlag{Name: "image", Aliases: []string{"i"}, Usage: "Replace the image with this file"},
			&cli.BoolFlag{Name: "drop-image", Usage: "Remove the current image"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}

			g := env.gallery(c)
			existing, err := g.Get(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			input := gallery.SaveInput{
				ID:        existing.ID,
				Title:     existing.Title,
				Text:      existing.Text,
				Category:  existing.Category,
				Tags:      existing.Tags,
				Favorite:  existing.Favorite,
				KeepImage: !c.Bool("drop-image"),
			}
			if c.IsSet("text") {
				input.Text = c.String("text")
			}
			if c.IsSet("title") {
				input.Title = c.String("title")
			}
			if c.IsSet("category") {
				input.Category = c.String("category")
			}
			if c.IsSet("tags") {
				input.Tags = gallery.ParseTags(c.String("tags"))
			}
			if c.IsSet("favorite") {
				input.Favorite = c.Bool("favorite")
			}
			if path := c.Path("image"); path != "" {
				if input.Image, err = readImageFile(path); err != nil {
					return outputError(err)
				}
			}

			output, err := g.Save(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// getCmd creates the get command.
func getCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a prompt",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}

			record, err := env.gallery(c).Get(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, record)
		},
	}
}

// listOutput is the JSON shape of the list command.
type listOutput struct {
	Prompts []prompt.Record `json:"prompts"`
	Count   int             `json:"count"`
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List prompts, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Value: query.CategoryAll, Usage: "all|favorite|image|video|chat|code"},
			&cli.StringFlag{Name: "tag", Usage: "Only prompts with this tag"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive search over text and tags"},
			&cli.BoolFlag{Name: "brief", Usage: "Print summaries instead of full text"},
		},
		Action: func(c *cli.Context) error {
			g := env.gallery(c)
			g.SelectCategory(c.String("category"))
			if tag := c.String("tag"); tag != "" {
				g.SelectTag(tag)
			}
			g.Search(c.String("query"))

			records, err := g.Visible(c.Context)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("brief") {
				summaries := lo.Map(records, func(r prompt.Record, _ int) prompt.Summary {
					return r.Summarize()
				})
				return outputJSON(c, map[string]any{"prompts": summaries, "count": len(summaries)})
			}

			return outputJSON(c, listOutput{Prompts: records, Count: len(records)})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a prompt and its image",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}

			output, err := env.gallery(c).Delete(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// favoriteCmd creates the favorite command.
func favoriteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "favorite",
		Usage:     "Toggle the favorite flag",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return outputError(err)
			}

			record, err := env.gallery(c).ToggleFavorite(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, record)
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List all distinct tags",
		Action: func(c *cli.Context) error {
			tags, err := env.gallery(c).Tags(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, map[string]any{"tags": tags})
		},
	}
}

// imageCmd groups the image subcommands.
func imageCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "image",
		Usage: "Manage prompt images",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Attach an image file to a prompt",
				ArgsUsage: "<id> <file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return outputError(errors.NewInvalidRequest("usage: stocker image set <id> <file>"))
					}
					blob, err := readImageFile(c.Args().Get(1))
					if err != nil {
						return outputError(err)
					}

					record, err := env.gallery(c).AttachImage(c.Context, c.Args().Get(0), blob)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c, record)
				},
			},
			{
				Name:      "get",
				Usage:     "Write a prompt's image to a file, or print it as a data URI",
				ArgsUsage: "<id> [file]",
				Action: func(c *cli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return outputError(err)
					}

					g := env.gallery(c)
					if path := c.Args().Get(1); path != "" {
						output, err := g.WriteImageFile(c.Context, id, path)
						if err != nil {
							return outputError(err)
						}
						return outputJSON(c, output)
					}

					blob, mime, err := g.Image(c.Context, id)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c, map[string]any{"id": id, "mime": mime, "data_uri": prompt.EncodeDataURI(blob)})
				},
			},
			{
				Name:      "rm",
				Usage:     "Remove a prompt's image",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return outputError(err)
					}

					record, err := env.gallery(c).DetachImage(c.Context, id)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c, record)
				},
			},
			{
				Name:  "prune",
				Usage: "Delete images no prompt refers to",
				Action: func(c *cli.Context) error {
					pruned, err := env.gallery(c).PruneImages(c.Context)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c, map[string]any{"pruned": pruned, "count": len(pruned)})
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all prompts and images to a JSON backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.stocker/exports/prompt-stocker-backup-<date>.json)"},
			&cli.BoolFlag{Name: "progress", Usage: "Report progress on stderr"},
		},
		Action: func(c *cli.Context) error {
			input := gallery.ExportInput{Path: c.String("path")}
			if c.Bool("progress") {
				input.Progress = progressPrinter(c.App.ErrWriter, "exported")
			}

			output, err := env.gallery(c).Export(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Merge a JSON backup into the library",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.BoolFlag{Name: "progress", Usage: "Report progress on stderr"},
		},
		Action: func(c *cli.Context) error {
			input := gallery.ImportInput{Path: c.String("path")}
			if c.Bool("progress") {
				input.Progress = progressPrinter(c.App.ErrWriter, "imported")
			}

			output, err := env.gallery(c).Import(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			// Partial failures still print the report; the exit status reflects them.
			if err := outputJSON(c, output); err != nil {
				return err
			}
			if err := output.Err(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// themeCmd creates the theme command.
func themeCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "theme",
		Usage:     "Show or set the gallery theme",
		ArgsUsage: "[light|dark]",
		Action: func(c *cli.Context) error {
			g := env.gallery(c)
			if c.NArg() > 0 {
				if err := g.SetTheme(c.Context, c.Args().First()); err != nil {
					return outputError(err)
				}
			}

			theme, err := g.Theme(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, map[string]string{"theme": theme})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the gallery over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := env.cfg.WebBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := env.cfg.WebPort
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv, err := web.NewServer(env.store, env.cfg, web.Options{
				Version:  Version,
				Bind:     bind,
				Port:     port,
				Notifier: notify.NewLog(env.logger),
				Logger:   env.logger,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			return web.Run(srv, env.logger)
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's stdout as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if stockerErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", stockerErr.Code, stockerErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// requireID returns the first positional argument.
func requireID(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// readText returns the prompt text from the arguments, or from piped stdin.
func readText(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if f, ok := c.App.Reader.(*os.File); ok && !stdinHasData(f) {
		return "", errors.NewInvalidRequest("prompt text must be given as arguments or piped via stdin")
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.NewInvalidRequest("text is required")
	}
	return text, nil
}

// stdinHasData returns true if f has piped data (not a terminal).
func stdinHasData(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readImageFile loads an image the user named on the command line.
func readImageFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// progressPrinter reports transfer progress as "verb N/M".
func progressPrinter(w io.Writer, verb string) store.ProgressFunc {
	return func(done, total int, _ string) {
		fmt.Fprintf(w, "%s %d/%d\n", verb, done, total)
	}
}
