package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	newsletter "github.com/nicolasbarbe/cpss-newsletter"
	"github.com/nicolasbarbe/cpss-newsletter/blocks"
	"github.com/nicolasbarbe/cpss-newsletter/internal/config"
	"github.com/nicolasbarbe/cpss-newsletter/internal/state"
)

func runConvert(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	env.Overwrite = cmd.Bool("overwrite")
	env.MJMLOnly = cmd.Bool("mjml")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	if base := cmd.String("base"); base != "" {
		env.Cfg.Document.Base = base
	}
	opts, err := converterOptions(env.Cfg, env.MJMLOnly, env.Log)
	if err != nil {
		return err
	}
	conv := newsletter.NewConverter(opts, env.Log)

	var out string
	if src == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("unable to read STDIN: %w", err)
		}
		out, err = conv.ProcessHTMLChunk(ctx, string(data))
		if err != nil {
			return err
		}
	} else {
		if out, err = conv.ProcessHTMLFile(ctx, src); err != nil {
			return err
		}
	}

	if dst == "" {
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
	if _, err := os.Stat(dst); err == nil && !env.Overwrite {
		return fmt.Errorf("destination '%s' already exists, use --overwrite", dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	if err := os.WriteFile(dst, []byte(out), 0644); err != nil {
		return fmt.Errorf("unable to write destination '%s': %w", dst, err)
	}
	env.Log.Info("Newsletter created", zap.String("source", src), zap.String("destination", dst), zap.Duration("elapsed", env.Uptime()))
	return nil
}

// converterOptions translates configuration into converter options.
func converterOptions(cfg *config.Config, mjmlOnly bool, log *zap.Logger) (newsletter.Options, error) {
	doc := cfg.Document
	opts := newsletter.Options{
		Base:    doc.Base,
		Modules: blocks.Default(),
		GlobalSheets: &newsletter.Sheets{
			Styles:       doc.Styles,
			InlineStyles: doc.InlineStyles,
		},
		Classes: newsletter.ContentClasses{
			Text:   doc.Classes.Text,
			Image:  doc.Classes.Image,
			Button: doc.Classes.Button,
		},
		LastSection: newsletter.LastSectionPolicy(doc.LastSection),
		BodyWidth:   doc.BodyWidth,
	}
	if doc.ContentBase != "" {
		u, err := url.Parse(doc.ContentBase)
		if err != nil {
			return opts, fmt.Errorf("bad content base: %w", err)
		}
		opts.ContentBase = u
	}
	if cfg.Renderer.Kind == "mjml" && !mjmlOnly {
		opts.Renderer = newsletter.NewExecRenderer(cfg.Renderer.Command, cfg.Renderer.Args, newsletter.NewRegistry[string](), log)
	}
	return opts, nil
}
