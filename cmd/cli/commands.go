package main

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/yourorg/tastebook/internal/security/auth"
	"github.com/yourorg/tastebook/internal/service"
)

func newMigrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), !statusOnly)
			if err != nil {
				return err
			}
			defer e.Close()

			version, err := e.pool.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{"driver": e.pool.Driver(), "version": version})
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only report the current schema version")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var placeTypes, areas []string

	cmd := &cobra.Command{
		Use:   "seed-global",
		Short: "Insert the shared place types and areas; existing names are skipped",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := service.DefaultGlobalCatalog
			if cmd.Flags().Changed("place-type") || cmd.Flags().Changed("area") {
				catalog = service.GlobalCatalog{PlaceTypes: placeTypes, Areas: areas}
			}

			e, err := connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := service.NewAdminService(e.deps(), nil).SeedGlobal(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			return writeJSON(res)
		},
	}
	cmd.Flags().StringSliceVar(&placeTypes, "place-type", nil, "Global place type name (repeatable)")
	cmd.Flags().StringSliceVar(&areas, "area", nil, "Global area name (repeatable)")
	return cmd
}

func newRecomputeCmd() *cobra.Command {
	var (
		placeID   string
		household string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild place aggregates from their visits",
		RunE: func(cmd *cobra.Command, args []string) error {
			if placeID == "" && household == "" && !all {
				return errors.New("one of --place, --household or --all is required")
			}

			e, err := connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			admin := service.NewAdminService(e.deps(), nil)
			start := time.Now()

			if placeID != "" {
				m, err := admin.RecomputePlace(cmd.Context(), placeID)
				if err != nil {
					return err
				}
				return writeJSON(map[string]any{
					"place":         placeID,
					"visits_count":  m.VisitCount,
					"avg_rating":    m.AvgRating,
					"avg_price_pp":  m.AvgPricePerPerson,
					"last_visit_at": m.LastVisitAt,
				})
			}

			n, err := admin.RecomputeAll(cmd.Context(), household)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{
				"places":      n,
				"household":   household,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		},
	}
	cmd.Flags().StringVar(&placeID, "place", "", "Recompute one place")
	cmd.Flags().StringVar(&household, "household", "", "Recompute every place of one household")
	cmd.Flags().BoolVar(&all, "all", false, "Recompute every place")
	cmd.MarkFlagsMutuallyExclusive("place", "household", "all")
	return cmd
}

func newHouseholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "household",
		Short: "Manage households and members",
	}
	cmd.AddCommand(newHouseholdCreateCmd(), newHouseholdListCmd(), newMemberAddCmd())
	return cmd
}

func newHouseholdCreateCmd() *cobra.Command {
	var name, username string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a household with its first member",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			h, m, err := e.households().Bootstrap(cmd.Context(), name, username)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{"household": h, "member": m})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Household name (required)")
	cmd.Flags().StringVar(&username, "username", "", "Username of the first member (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newHouseholdListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List households",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			households, err := e.households().List(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(households)
		},
	}
}

func newMemberAddCmd() *cobra.Command {
	var householdID, username string

	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Add a member to an existing household",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			m, err := e.households().AddMember(cmd.Context(), householdID, username)
			if err != nil {
				return err
			}
			return writeJSON(m)
		},
	}
	cmd.Flags().StringVar(&householdID, "household", "", "Household id (required)")
	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	_ = cmd.MarkFlagRequired("household")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			m, err := e.households().Member(cmd.Context(), username)
			if err != nil {
				return errors.Wrapf(err, "member %q", username)
			}
			if ttl == 0 {
				ttl = e.cfg.Auth.TokenTTL
			}

			tm := auth.NewTokenManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.JWTIssuer)
			token, err := tm.GenerateToken(m.HouseholdID, m.ID, m.Username, ttl)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{
				"token":      token,
				"household":  m.HouseholdID,
				"member":     m.ID,
				"expires_at": time.Now().Add(ttl).UTC(),
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Member username (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_TTL)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
