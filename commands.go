package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/database"
	"github.com/ekaya-inc/ekaya-campus/pkg/explorer"
	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/render"
)

var nearFlag string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending repository store migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		connURL, err := cfg.Store.ConnectionURL()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(connURL, logger); err != nil {
			return err
		}
		return printMigrationStatus(cmd, connURL)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied migration version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		connURL, err := cfg.Store.ConnectionURL()
		if err != nil {
			return err
		}
		return printMigrationStatus(cmd, connURL)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search universities (runs the default query when none is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *explorer.Session) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return s.Start(ctx)
			}
			return s.Search(ctx, query)
		})
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <university>",
	Short: "Show a university with its programs, location and saved status",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		near, err := parseNear(nearFlag)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *explorer.Session) error {
			return openUniversity(ctx, s, strings.Join(args, " "), near)
		})
	},
}

var programCmd = &cobra.Command{
	Use:   "program <university> <program>",
	Short: "Show the details of one program offered by a university",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *explorer.Session) error {
			if err := openUniversity(ctx, s, args[0], nil); err != nil {
				return err
			}
			if snap := s.Snapshot(); snap.CurrentView() != models.ViewUniversity {
				return nil
			}
			return s.SelectProgram(ctx, args[1])
		})
	},
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List the universities saved in the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *explorer.Session) error {
			return s.SwitchMode(ctx, models.ModeRepository)
		})
	},
}

var savedAddCmd = &cobra.Command{
	Use:   "add <university>",
	Short: "Look up a university and save it to the repository",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *explorer.Session) error {
			if err := openUniversity(ctx, s, strings.Join(args, " "), nil); err != nil {
				return err
			}
			snap := s.Snapshot()
			if snap.CurrentView() != models.ViewUniversity || snap.Detail.IsSaved {
				return nil
			}
			return s.ToggleSave(ctx)
		})
	},
}

var savedRemoveCmd = &cobra.Command{
	Use:   "remove <university>",
	Short: "Remove a university from the repository by exact name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, false, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.saved.IsConfigured() {
			return apperrors.ErrStoreNotConfigured
		}
		name := strings.Join(args, " ")
		if err := a.saved.Remove(cmd.Context(), name); err != nil {
			return err
		}
		return writeOutput(cmd, map[string]any{"name": name, "removed": true}, "Removed "+name)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the content service credentials against every configured model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := llm.NewClient(cmd.Context(), cfg.Content, logger.Named("llm"))
		if err != nil {
			return err
		}

		result := llm.NewConnectionTester().Test(cmd.Context(), client,
			cfg.Content.Model, cfg.Content.FallbackModel, cfg.Content.LocationModel)

		var sb strings.Builder
		sb.WriteString(result.Message)
		for _, m := range result.Models {
			status := "ok"
			if !m.Success {
				status = "FAILED"
			}
			fmt.Fprintf(&sb, "\n  %-28s %-6s %5dms  %s", m.Model, status, m.ResponseTimeMs, m.Message)
		}
		if err := writeOutput(cmd, result, sb.String()); err != nil {
			return err
		}
		if !result.Success {
			return errors.New("content service check failed")
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
	savedCmd.AddCommand(savedAddCmd, savedRemoveCmd)
	detailsCmd.Flags().StringVar(&nearFlag, "near", "", "your position as lat,lng for distance and directions")
}

// withSession drives a one-shot explorer session and prints its final state.
// A banner left on the state is returned as the command error.
func withSession(cmd *cobra.Command, run func(ctx context.Context, s *explorer.Session) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	s := explorer.NewSession("cli", a.catalog, a.saved, logger.Named("explorer"))
	if err := run(ctx, s); err != nil {
		return err
	}
	s.Wait()

	snap := s.Snapshot()
	if err := writeOutput(cmd, snap, newRenderer().State(snap)); err != nil {
		return err
	}
	if snap.Error != nil {
		return errors.New(*snap.Error)
	}
	return nil
}

// openUniversity searches for name and drills into the closest match.
// An empty result list leaves the session on the list view.
func openUniversity(ctx context.Context, s *explorer.Session, name string, near *models.LatLng) error {
	if err := s.Search(ctx, name); err != nil {
		return err
	}
	snap := s.Snapshot()
	if len(snap.Universities) == 0 {
		return nil
	}

	id := snap.Universities[0].ID
	for _, u := range snap.Universities {
		if strings.EqualFold(u.Name, name) {
			id = u.ID
			break
		}
	}
	if err := s.SelectUniversity(ctx, id); err != nil {
		return err
	}
	if snap := s.Snapshot(); snap.CurrentView() != models.ViewUniversity {
		return nil
	}
	if err := s.LoadDetailExtras(ctx, near); err != nil {
		logger.Debug("Detail extras skipped", zap.Error(err))
	}
	return nil
}

func printMigrationStatus(cmd *cobra.Command, connURL string) error {
	status, err := database.GetMigrationStatus(connURL, logger)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Schema version %d", status.Version)
	if status.Dirty {
		text += " (dirty)"
	}
	if status.Pending {
		text += ", migrations pending"
	}
	return writeOutput(cmd, status, text)
}

// parseNear accepts "lat,lng".
func parseNear(raw string) (*models.LatLng, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	latRaw, lngRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, fmt.Errorf("%w: --near must be lat,lng", apperrors.ErrInvalidInput)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude %q", apperrors.ErrInvalidInput, latRaw)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude %q", apperrors.ErrInvalidInput, lngRaw)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", apperrors.ErrInvalidInput)
	}
	return &models.LatLng{Lat: lat, Lng: lng}, nil
}

func newRenderer() *render.Renderer {
	if noColor {
		return render.NewRenderer(render.PlainStyles())
	}
	return render.NewRenderer(render.DefaultStyles())
}

func writeOutput(cmd *cobra.Command, v any, text string) error {
	format, err := render.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	return render.Encode(cmd.OutOrStdout(), format, v, text)
}
