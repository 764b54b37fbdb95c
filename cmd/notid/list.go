package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/adapter/output"
	"github.com/jmylchreest/notid/internal/core"
	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/model"
)

type listOptions struct {
	format   string
	template string
	field    string
	limit    int
	urgency  string
	app      string
	since    string
	search   string
	filter   string
	sort     string
	order    string
	apps     bool
}

var listOpts listOptions

var listCmd = &cobra.Command{
	Use:     "list [id|key]",
	Aliases: []string{"ls"},
	Short:   "List retained notifications",
	Long: `List the notifications notidd currently retains, newest first.

With an argument, outputs only the notification it names. The argument is
an id, a key, or a key prefix of at least four characters that matches one
notification. With --apps, outputs the names of the apps that sent the
listed notifications.

Examples:
  # List everything
  notid list

  # Pick one with a launcher and copy its body
  notid list --format dmenu | fuzzel -d | cut -d' ' -f1 | xargs notid list --field body | wl-copy

  # Output as JSON
  notid list --format json

  # Use a template from the config file
  notid list --template full

  # Critical notifications from the last day, oldest first
  notid list --since 1d --urgency critical --order asc

  # Filter expressions (comma separated, all must match)
  notid list --filter "app=discord,summary~meeting"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "",
		"Output format (plain, dmenu, json, jsonl, yaml, ids, keys; default from config)")
	listCmd.Flags().StringVarP(&listOpts.template, "template", "t", "",
		"Go template, or the name of a template from the config file")
	listCmd.Flags().StringVar(&listOpts.field, "field", "",
		"Output a single field of the notification given by id (id, key, app, summary, body, plain_body, urgency, time, actions, ...)")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", 0,
		"Maximum notifications listed (default from config, 0 = unlimited)")
	listCmd.Flags().StringVar(&listOpts.urgency, "urgency", "",
		"Only list notifications of this urgency (low, normal, critical)")
	listCmd.Flags().StringVar(&listOpts.app, "app", "",
		"Only list notifications from this app")
	listCmd.Flags().StringVar(&listOpts.since, "since", "",
		"Only list notifications newer than this (e.g. 30m, 2h, 1d, 1w)")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "",
		"Only list notifications whose summary or body contains this text")
	listCmd.Flags().StringVar(&listOpts.filter, "filter", "",
		"Filter expression (e.g. \"urgency>=normal,app~slack\")")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", "",
		"Sort field (timestamp, app, urgency, id)")
	listCmd.Flags().StringVar(&listOpts.order, "order", "",
		"Sort order (asc, desc)")
	listCmd.Flags().BoolVar(&listOpts.apps, "apps", false,
		"List the distinct app names instead of notifications")
}

func runList(cmd *cobra.Command, args []string) error {
	var notifications []model.Notification
	err := withClient(func(ctx context.Context, client *dbus.Client) error {
		var err error
		notifications, err = client.List(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if len(args) == 1 {
		n, err := findNotification(notifications, args[0])
		if err != nil {
			return err
		}
		if listOpts.field != "" {
			value, err := output.FormatField(n, listOpts.field)
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		}
		notifications = []model.Notification{*n}
	}

	notifications, err = filterNotifications(notifications)
	if err != nil {
		return err
	}

	if listOpts.apps {
		for _, app := range core.UniqueApps(notifications) {
			fmt.Println(app)
		}
		return nil
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, notifications)
}

// findNotification returns the notification an id, key, or key prefix refers to.
func findNotification(notifications []model.Notification, arg string) (*model.Notification, error) {
	return core.Resolve(notifications, arg)
}

// filterNotifications applies the list flags, then the sort order, then the limit.
func filterNotifications(notifications []model.Notification) ([]model.Notification, error) {
	opts := core.FilterOptions{
		App:    listOpts.app,
		Search: listOpts.search,
	}

	if listOpts.urgency != "" {
		urgency, err := core.ParseUrgency(listOpts.urgency)
		if err != nil {
			return nil, err
		}
		opts.Urgency = &urgency
	}

	since, err := core.ParseDuration(orDefault(listOpts.since, cfg.List.Since))
	if err != nil {
		return nil, fmt.Errorf("invalid --since: %w", err)
	}
	opts.Since = since

	if listOpts.filter != "" {
		expr, err := core.ParseFilter(listOpts.filter)
		if err != nil {
			return nil, fmt.Errorf("invalid --filter: %w", err)
		}
		opts.Expr = expr
	}

	field, err := core.ParseSortField(orDefault(listOpts.sort, cfg.List.Sort))
	if err != nil {
		return nil, err
	}
	order, err := core.ParseSortOrder(orDefault(listOpts.order, cfg.List.Order))
	if err != nil {
		return nil, err
	}

	notifications = core.Filter(notifications, opts)
	core.Sort(notifications, core.SortOptions{Field: field, Order: order})

	limit := listOpts.limit
	if limit == 0 {
		limit = cfg.Output.Limit
	}
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

// newFormatter builds the formatter from --format and --template, falling back to the config.
// --template may name a configured template. dmenu output uses the configured dmenu
// template unless another is given.
func newFormatter() (output.Formatter, error) {
	format, err := output.ParseFormat(orDefault(listOpts.format, cfg.Output.Format))
	if err != nil {
		return nil, err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	if named := cfg.GetTemplate(listOpts.template); named != "" {
		opts.Template = named
	}
	if opts.Template == "" && format == output.FormatDmenu {
		opts.Template = cfg.GetTemplate("dmenu")
	}

	return output.NewFormatter(format, opts)
}

func orDefault(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

func parseID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", arg)
	}
	return uint32(id), nil
}
