package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/emojiworks/facefont"
	"github.com/emojiworks/facefont/bitmap"
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/sfnt"
	"github.com/emojiworks/facefont/store"
	"github.com/emojiworks/facefont/woff2"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "facefont",
		Usage:   "Build installable emoji fonts from face captures",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging to stderr"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				facefont.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			return nil
		},
		Commands: []*cli.Command{
			buildCmd(),
			emojisCmd(),
			cleanupCmd(),
		},
	}
}

// buildCmd assembles a font from a directory of <hexkey>.png captures.
func buildCmd() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Assemble a font from a directory of <hexkey>.png captures",
		ArgsUsage: "<capture-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "facefont.woff2", Usage: "Output WOFF2 path"},
			&cli.StringFlag{Name: "ttf", Usage: "Also write the uncompressed font to this path"},
			&cli.StringFlag{Name: "family", Value: facefont.DefaultFamily, Usage: "Font family name"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected one capture directory argument")
			}
			dir := c.Args().First()

			entries, err := loadCaptureDir(dir)
			if err != nil {
				return err
			}
			font, err := sfnt.Assemble(entries, sfnt.Options{Family: c.String("family")})
			if err != nil {
				return err
			}
			container, err := woff2.Compress(font)
			if err != nil {
				return err
			}

			out := c.String("output")
			if err := os.WriteFile(out, container, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s (%d glyphs, %d bytes)\n",
				out, font.NumGlyphs(), len(container))

			if ttf := c.String("ttf"); ttf != "" {
				data := font.Bytes()
				if err := os.WriteFile(ttf, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", ttf, len(data))
			}
			return nil
		},
	}
}

// loadCaptureDir reads every <hexkey>.png in dir as one font entry, in
// registry order for standard glyphs with customs after, matching the
// ordering the capture store uses.
func loadCaptureDir(dir string) ([]sfnt.Entry, error) {
	names, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no .png captures in %s", dir)
	}

	registry := emoji.Default()
	order := make(map[string]int, registry.Len())
	for i, g := range registry.Glyphs() {
		order[g.HexKey()] = i
	}

	var entries []sfnt.Entry
	positions := make(map[string]int, len(names))
	for _, name := range names {
		key := strings.TrimSuffix(filepath.Base(name), ".png")
		glyph, err := resolveKey(registry, key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		bm, err := bitmap.DecodePNG(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if bm.Width() != bitmap.CanonicalSize || bm.Height() != bitmap.CanonicalSize {
			bm = bm.FitSquare(bitmap.CanonicalSize)
		}

		pos, ok := order[glyph.HexKey()]
		if !ok {
			pos = registry.Len() + len(entries)
		}
		positions[glyph.HexKey()] = pos
		entries = append(entries, sfnt.Entry{Glyph: glyph, Bitmap: bm})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return positions[entries[i].Glyph.HexKey()] < positions[entries[j].Glyph.HexKey()]
	})
	return entries, nil
}

// resolveKey maps a capture filename key to a glyph: a standard registry key
// or a dash-joined hex scalar sequence for customs.
func resolveKey(registry *emoji.Registry, key string) (emoji.Glyph, error) {
	if glyph, ok := registry.Lookup(key); ok {
		return glyph, nil
	}

	parts := strings.Split(key, "-")
	runes := make([]rune, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 16, 32)
		if err != nil {
			return emoji.Glyph{}, fmt.Errorf("bad capture key %q", key)
		}
		runes = append(runes, rune(v))
	}
	if glyph, err := emoji.ParseCustom(string(runes)); err == nil {
		return glyph, nil
	}
	return emoji.Glyph{Codepoints: runes, Name: key, Custom: true}, nil
}

// emojisCmd prints the standard registry.
func emojisCmd() *cli.Command {
	return &cli.Command{
		Name:  "emojis",
		Usage: "List the standard face emoji registry",
		Action: func(c *cli.Context) error {
			registry := emoji.Default()
			for _, cat := range registry.Categories() {
				fmt.Fprintf(c.App.Writer, "%s (%s)\n", cat.Name, cat.ID)
				for _, g := range cat.Glyphs {
					fmt.Fprintf(c.App.Writer, "  %s  %-40s %s\n", g.String(), g.Name, g.HexKey())
				}
			}
			fmt.Fprintf(c.App.Writer, "%d emoji\n", registry.Len())
			return nil
		},
	}
}

// cleanupCmd sweeps expired sessions from a capture store.
func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete sessions idle longer than the TTL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: defaultDBPath(), Usage: "Capture store path"},
			&cli.DurationFlag{Name: "ttl", Value: 7 * 24 * time.Hour, Usage: "Session idle time-to-live"},
		},
		Action: func(c *cli.Context) error {
			st, err := store.Open(store.Config{Path: c.String("db")})
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.CleanupExpired(c.Context, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "removed %d expired sessions\n", n)
			return nil
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "facefont.db"
	}
	return filepath.Join(home, ".facefont", "facefont.db")
}
