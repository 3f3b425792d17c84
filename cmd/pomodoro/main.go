package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pomodoro/internal/bootstrap"
	alertin "pomodoro/internal/modules/alert/adapter/in"
	historyin "pomodoro/internal/modules/history/adapter/in"
	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	settingsin "pomodoro/internal/modules/settings/adapter/in"
	settingsdomain "pomodoro/internal/modules/settings/domain"
	settingsdto "pomodoro/internal/modules/settings/dto"
	timerin "pomodoro/internal/modules/timer/adapter/in"
	timerdomain "pomodoro/internal/modules/timer/domain"
	timerdto "pomodoro/internal/modules/timer/dto"
	"pomodoro/internal/platform/config"
	"pomodoro/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "pomodoro",
		Short:         "Pomodoro timer with project tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the session log, settings and timer state")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newServeCmd(&dataDir))
	root.AddCommand(newStartCmd(&dataDir))
	root.AddCommand(newSimpleCmd(&dataDir, "pause", "Pause the running session", timerin.ActionPause))
	root.AddCommand(newSimpleCmd(&dataDir, "resume", "Resume a paused session", timerin.ActionResume))
	root.AddCommand(newSimpleCmd(&dataDir, "reset", "Stop the timer without recording", timerin.ActionReset))
	root.AddCommand(newStatusCmd(&dataDir))
	root.AddCommand(newAutoStartCmd(&dataDir))
	root.AddCommand(newHistoryCmd(&dataDir))
	root.AddCommand(newProjectCmd(&dataDir))
	root.AddCommand(newStatsCmd(&dataDir))
	root.AddCommand(newExportCmd(&dataDir))
	root.AddCommand(newImportCmd(&dataDir))
	root.AddCommand(newSettingsCmd(&dataDir))
	root.AddCommand(newSimpleCmd(&dataDir, "test-alerts", "Fire a test alert on every enabled channel", alertin.ActionTestAlerts))
	return root
}

// session owns one loaded app and the log file behind it.
type session struct {
	app *bootstrap.App
	log io.Closer
}

func (s session) Close() {
	_ = s.app.Close()
	if s.log != nil {
		_ = s.log.Close()
	}
}

// loadApp builds the app and restores the timer. Logs go to the data dir
// unless toStdout is set, so command output stays clean.
func loadApp(ctx context.Context, dataDir string, interactive, toStdout bool) (session, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return session{}, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return session{}, fmt.Errorf("create data dir: %w", err)
	}
	var out io.Writer = os.Stdout
	var closer io.Closer
	if !toStdout {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return session{}, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	logger := logging.New(out, cfg.LogLevel, cfg.IsDevelopment())

	opts := bootstrap.Options{Interactive: interactive}
	if interactive {
		opts.Bell = os.Stdout
	}
	app, err := bootstrap.New(cfg, logger, opts)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return session{}, err
	}
	s := session{app: app, log: closer}
	if err := app.Start(ctx); err != nil {
		s.Close()
		return session{}, err
	}
	return s, nil
}

// run executes fn against a one-shot app.
func run(dataDir string, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := context.Background()
	s, err := loadApp(ctx, dataDir, false, false)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s.app)
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s, err := loadApp(ctx, *dataDir, true, false)
			if err != nil {
				return err
			}
			defer s.Close()
			return bootstrap.RunTUI(ctx, s.app)
		},
	}
}

func newServeCmd(dataDir *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timer with the HTTP API and event stream",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s, err := loadApp(ctx, *dataDir, true, true)
			if err != nil {
				return err
			}
			defer s.Close()
			if addr != "" {
				s.app.Config.HTTPAddr = addr
			}
			server := s.app.Server()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(server.Start)
			g.Go(func() error {
				<-gctx.Done()
				return server.Shutdown()
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides POMODORO_HTTP_ADDR)")
	return cmd
}

func newStartCmd(dataDir *string) *cobra.Command {
	var kind, project string
	var minutes int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a work or break session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				prefs := app.Settings.Get(ctx)
				if minutes == 0 {
					minutes = prefs.WorkMinutes
					if kind == string(timerdomain.KindBreak) {
						minutes = prefs.BreakMinutes
					}
				}
				if project == "" && kind == string(timerdomain.KindWork) {
					project = prefs.LastProject
				}
				input := timerdto.StartInput{Type: kind, Project: project, Duration: minutes}
				if err := app.Call(ctx, timerin.ActionStart, input, nil); err != nil {
					return err
				}
				return printStatus(ctx, cmd.OutOrStdout(), app)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "work", "session type: work|break")
	cmd.Flags().StringVar(&project, "project", "", "project for work sessions (defaults to the last one)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "session length (defaults to the configured length)")
	return cmd
}

func newSimpleCmd(dataDir *string, use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Call(ctx, action, nil, nil); err != nil {
					return err
				}
				if action == alertin.ActionTestAlerts {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "test alert sent")
					return nil
				}
				return printStatus(ctx, cmd.OutOrStdout(), app)
			})
		},
	}
}

func newStatusCmd(dataDir *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the timer state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if asJSON {
					var status timerdto.Status
					if err := app.Call(ctx, timerin.ActionGetStatus, nil, &status); err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), status)
				}
				return printStatus(ctx, cmd.OutOrStdout(), app)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status")
	return cmd
}

func printStatus(ctx context.Context, w io.Writer, app *bootstrap.App) error {
	var status timerdto.Status
	if err := app.Call(ctx, timerin.ActionGetStatus, nil, &status); err != nil {
		return err
	}
	current := "-"
	if s := status.ActiveSession; s != nil {
		current = string(s.Kind)
		if s.Project != "" {
			current += " " + s.Project
		}
		current += fmt.Sprintf(" (%d min)", s.DurationMinutes)
	}
	_, _ = fmt.Fprintf(w, "phase: %s\nremaining: %s\nsession: %s\nauto-start: %t\nlast project: %s\n",
		status.Phase, timerdomain.FormatClock(status.RemainingSeconds), current, status.AutoStartEnabled, status.LastProject)
	return nil
}

func newAutoStartCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:       "autostart <on|off>",
		Short:     "Toggle automatic chaining of the next session",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "on" && args[0] != "off" {
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				input := timerdto.AutoStartInput{Enabled: args[0] == "on"}
				if err := app.Call(ctx, timerin.ActionSetAutoStart, input, nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "auto-start %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryCmd(dataDir *string) *cobra.Command {
	var period, project, kind string
	history := &cobra.Command{
		Use:   "history",
		Short: "List and edit completed sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := historydomain.Filter{Project: project, Period: historydomain.Period(period), Kind: historydomain.Kind(kind)}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var view historydto.HistoryView
				if err := app.Call(ctx, historyin.ActionHistory, filter, &view); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if view.Total == 0 {
					_, _ = fmt.Fprintln(out, "no sessions")
					return nil
				}
				for _, day := range view.Days {
					_, _ = fmt.Fprintln(out, day.Date)
					for _, rec := range day.Sessions {
						_, _ = fmt.Fprintf(out, "  %s\t%s\t%s\t%d min\t%s\n", rec.ID, rec.CompletedAt.Format("15:04"), rec.Kind, rec.DurationMinutes, rec.Project)
					}
				}
				for _, p := range view.Projects {
					_, _ = fmt.Fprintf(out, "%s\t%d sessions\t%s\tavg %s\n", p.Name, p.Sessions,
						historydomain.FormatDuration(p.TotalMinutes), historydomain.FormatDuration(p.AverageMinutes))
				}
				return nil
			})
		},
	}
	history.Flags().StringVar(&period, "period", "all", "all|today|week|month")
	history.Flags().StringVar(&project, "project", "", "only this project")
	history.Flags().StringVar(&kind, "type", "", "work|break")

	var editProject string
	var editMinutes int
	edit := &cobra.Command{
		Use:   "edit <session-id>",
		Short: "Change the project or duration of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := historydto.EditInput{ID: args[0]}
			if cmd.Flags().Changed("project") {
				input.Project = &editProject
			}
			if cmd.Flags().Changed("minutes") {
				input.DurationMinutes = &editMinutes
			}
			if input.Project == nil && input.DurationMinutes == nil {
				return fmt.Errorf("nothing to change, pass --project or --minutes")
			}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var rec historydomain.SessionRecord
				if err := app.Call(ctx, historyin.ActionEditSession, input, &rec); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s %d min %s\n", rec.ID, rec.Kind, rec.DurationMinutes, rec.Project)
				return nil
			})
		},
	}
	edit.Flags().StringVar(&editProject, "project", "", "new project")
	edit.Flags().IntVar(&editMinutes, "minutes", 0, "new duration")

	del := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Call(ctx, historyin.ActionDeleteSession, map[string]string{"id": args[0]}, nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	history.AddCommand(edit, del)
	return history
}

func newProjectCmd(dataDir *string) *cobra.Command {
	project := &cobra.Command{Use: "project", Short: "Manage projects across the session log"}

	project.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects with recorded work",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var names []string
				if err := app.Call(ctx, historyin.ActionManagedProjects, nil, &names); err != nil {
					return err
				}
				if len(names) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no projects")
				}
				for _, name := range names {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	})

	change := func(use, short, action, verb string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <from> <to>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
					var out historydto.ProjectChange
					if err := app.Call(ctx, action, historydto.RenameInput{From: args[0], To: args[1]}, &out); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s into %s (%d sessions)\n", verb, args[0], out.Project, out.Affected)
					return nil
				})
			},
		}
	}
	project.AddCommand(change("rename", "Rename a project", historyin.ActionRenameProject, "renamed"))
	project.AddCommand(change("merge", "Move every session of one project into another", historyin.ActionMergeProjects, "merged"))

	project.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a project and all of its sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var out historydto.ProjectChange
				if err := app.Call(ctx, historyin.ActionDeleteProject, map[string]string{"name": name}, &out); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%d sessions)\n", out.Project, out.Affected)
				return nil
			})
		},
	})
	return project
}

func newStatsCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-project statistics and today's total",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var stats historydto.StatsView
				if err := app.Call(ctx, historyin.ActionStats, nil, &stats); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "today: %d work sessions, %s\n", stats.Today.WorkSessions, stats.Today.Formatted)
				for name, p := range stats.Projects {
					_, _ = fmt.Fprintf(out, "%s\t%d sessions\t%s\tavg %dm\tstreak %d (best %d)\t%s..%s\n",
						name, p.SessionsCompleted, historydomain.FormatDuration(p.TotalMinutes), p.AverageSessionMinutes,
						p.CurrentStreakDays, p.BestStreakDays, p.FirstSessionDate, p.LastSessionDate)
				}
				return nil
			})
		},
	}
}

func newExportCmd(dataDir *string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:       "export <json|csv>",
		Short:     "Export the session log",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "csv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var action string
			switch args[0] {
			case "json":
				action = historyin.ActionExportJSON
			case "csv":
				action = historyin.ActionExportCSV
			default:
				return fmt.Errorf("unknown export format %q", args[0])
			}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var file historyin.ExportPayload
				if err := app.Call(ctx, action, nil, &file); err != nil {
					return err
				}
				if outPath == "" {
					_, err := io.WriteString(cmd.OutOrStdout(), file.Content)
					return err
				}
				if outPath == "." {
					outPath = file.Filename
				}
				if err := os.WriteFile(outPath, []byte(file.Content), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write to this file (\".\" uses the suggested name)")
	return cmd
}

func newImportCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import sessions from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s is not valid JSON", args[0])
			}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var result historydto.ImportResult
				params := map[string]json.RawMessage{"data": data}
				if err := app.Call(ctx, historyin.ActionImport, params, &result); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d sessions, skipped %d\n", result.Added, result.Skipped)
				return nil
			})
		},
	}
}

func newSettingsCmd(dataDir *string) *cobra.Command {
	settings := &cobra.Command{
		Use:   "settings",
		Short: "Show and change settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				return writeJSON(cmd.OutOrStdout(), app.Settings.Get(ctx))
			})
		},
	}

	var work, brk int
	var autoStart bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change session lengths or auto-start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var input settingsdto.UpdateInput
			if cmd.Flags().Changed("work") {
				input.WorkMinutes = &work
			}
			if cmd.Flags().Changed("break") {
				input.BreakMinutes = &brk
			}
			if cmd.Flags().Changed("autostart") {
				input.AutoStartEnabled = &autoStart
			}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var view settingsdto.View
				if err := app.Call(ctx, settingsin.ActionUpdateSettings, input, &view); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	set.Flags().IntVar(&work, "work", 0, "work session minutes")
	set.Flags().IntVar(&brk, "break", 0, "break session minutes")
	set.Flags().BoolVar(&autoStart, "autostart", false, "chain the next session automatically")

	alert := &cobra.Command{
		Use:   "alert <key>=<value>",
		Short: "Change one alert setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value, ok := strings.Cut(args[0], "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", args[0])
			}
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var alerts settingsdomain.AlertSettings
				input := settingsdto.AlertInput{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}
				if err := app.Call(ctx, settingsin.ActionUpdateAlertSetting, input, &alerts); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), alerts)
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset-alerts",
		Short: "Restore default alert settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(*dataDir, func(ctx context.Context, app *bootstrap.App) error {
				var alerts settingsdomain.AlertSettings
				if err := app.Call(ctx, settingsin.ActionResetAlertSettings, nil, &alerts); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), alerts)
			})
		},
	}

	settings.AddCommand(set, alert, reset)
	return settings
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
