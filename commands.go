package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jarv/justread/internal/home"
	"github.com/jarv/justread/internal/version"
)

const commandTimeout = 60 * time.Second

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

func newSaveCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "save <url>",
		Short: "Save a page to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal("save"); err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			item, err := a.library.Save(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q from %s\n", item.Title, item.Source.Name)
			return nil
		},
	}
}

func newSubscribeCmd(cfgFile *string) *cobra.Command {
	var newsletter bool

	cmd := &cobra.Command{
		Use:   "subscribe <url>",
		Short: "Discover the feed of a site and subscribe to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLocal("subscribe"); err != nil {
				return err
			}

			kind := home.SourceRSS
			if newsletter {
				kind = home.SourceNewsletter
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			fmt.Fprintf(cmd.OutOrStdout(), "Discovering feed URL from: %s\n", args[0])
			sub, err := a.library.Subscribe(ctx, a.profile.SubscriptionsFile, args[0], kind)
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to %s (%s)\n", sub.Name, sub.URL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&newsletter, "newsletter", false, "mark the subscription as a newsletter")
	return cmd
}

func newSectionsCmd(cfgFile *string) *cobra.Command {
	var hidden bool

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Print the home feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			sections, err := a.service.GetHomeItems(ctx)
			if err != nil {
				return fmt.Errorf("failed to load home feed: %w", err)
			}
			if hidden {
				section, err := a.service.GetHiddenHomeSection(ctx)
				if err != nil {
					return fmt.Errorf("failed to load hidden section: %w", err)
				}
				if section != nil {
					sections = append(sections, *section)
				}
			}
			return printSections(cmd.OutOrStdout(), sections, time.Now())
		},
	}

	cmd.Flags().BoolVar(&hidden, "hidden", false, "also print the items of the hidden section")
	return cmd
}

// printSections writes one block per section. Hidden headers without items
// are listed by title only.
func printSections(out io.Writer, sections []home.Section, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s [%s]\n", section.Title, section.Layout)
		for _, item := range section.Items {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				item.Title,
				item.Source.Name,
				home.TimeAgo(item.Date, now),
				home.ItemTarget(section.Layout, item),
			)
		}
	}
	return w.Flush()
}

func newLogsCmd(cfgFile *string) *cobra.Command {
	var limit int64
	var clearLogs bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent log messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			if clearLogs {
				if err := a.queries.DeleteAllLogMessages(ctx); err != nil {
					return fmt.Errorf("failed to clear logs: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Log messages cleared")
				return nil
			}

			logs, err := a.queries.GetLogMessages(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to read logs: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for i := len(logs) - 1; i >= 0; i-- {
				l := logs[i]
				ts := ""
				if l.Timestamp.Valid {
					ts = l.Timestamp.Time.Local().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ts, l.Level, l.Message, strings.TrimSpace(l.Attributes.String))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", 50, "number of messages to print")
	cmd.Flags().BoolVar(&clearLogs, "clear", false, "delete all stored log messages")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion())
		},
	}
}
