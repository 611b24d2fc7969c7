package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"screen-ocr-translate/src/config"
	"screen-ocr-translate/src/logutil"
	"screen-ocr-translate/src/settings"
)

func newSettingsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the app settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(opts)
				if err != nil {
					return err
				}
				return listSettings(cmd.OutOrStdout(), store.Path(), store.Load())
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(opts)
				if err != nil {
					return err
				}
				v, err := store.Load().Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting; a running app picks it up immediately",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(opts)
				if err != nil {
					return err
				}
				return store.Set(args[0], args[1])
			},
		},
	)
	return cmd
}

func openStore(opts *cliOptions) (*settings.Store, error) {
	cfg, err := config.LoadWithOptions(loadOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	path := cfg.SettingsPath
	if path == "" {
		if path, err = settings.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return settings.Open(path)
}

func listSettings(w io.Writer, path string, s settings.Settings) error {
	r := newRenderer()
	fmt.Fprintln(w, r.subtle.Render(path))
	for _, key := range settings.Keys() {
		v, err := s.Get(key)
		if err != nil {
			return err
		}
		if key == settings.KeyAPIKey && v != "" {
			v = logutil.RedactKey(v)
		}
		line := fmt.Sprintf("%s %s", r.label.Render(fmt.Sprintf("%-16s", key)), v)
		if allowed := settings.Allowed(key); len(allowed) > 0 {
			line += " " + r.subtle.Render("("+strings.Join(allowed, "|")+")")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
