package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/bootstrap"
	"github.com/noah-isme/ward-mar-api/internal/dto"
	"github.com/noah-isme/ward-mar-api/internal/models"
	"github.com/noah-isme/ward-mar-api/internal/service"
	"github.com/noah-isme/ward-mar-api/pkg/config"
	"github.com/noah-isme/ward-mar-api/pkg/export"
	"github.com/noah-isme/ward-mar-api/pkg/logger"
)

type reporter interface {
	Report(ctx context.Context, query dto.MarReportQuery) (*dto.MarReport, error)
}

type snapshotPublisher interface {
	Replace(ctx context.Context, snapshot *models.MarSnapshot) error
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "marctl",
		Short:         "Operate the ward MAR reporting engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logr, nil
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the MAR status report from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			dept, _ := cmd.Flags().GetString("dept")
			output, _ := cmd.Flags().GetString("output")

			cfg, logr, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			source, err := bootstrap.OpenSource(cfg, logr)
			if err != nil {
				return err
			}
			defer source.Close() //nolint:errcheck

			marSvc, _ := bootstrap.Services(cfg, source, nil, logr)
			query := dto.MarReportQuery{FromDate: from, ToDate: to, DeptCode: dept}
			return runReport(cmd.Context(), marSvc, query, output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("from", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Window end (YYYY-MM-DD)")
	cmd.Flags().String("dept", "", "Department code")
	cmd.Flags().StringP("output", "o", "json", "Output format: json or csv")
	return cmd
}

func runReport(ctx context.Context, r reporter, query dto.MarReportQuery, output string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := r.Report(ctx, query)
	if err != nil {
		return err
	}
	switch strings.ToLower(output) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "csv":
		payload, err := export.NewCSVExporter().Render(service.BuildMarDataset(report))
		if err != nil {
			return err
		}
		_, err = out.Write(payload)
		return err
	default:
		return fmt.Errorf("unsupported output %q (want json or csv)", output)
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Publish a snapshot document into the Redis source",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}

			cfg, logr, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer f.Close()

			store, closeFn, err := bootstrap.OpenRedisStore(cfg, logr)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			snapshot, err := runSeed(cmd.Context(), store, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d visit(s) and %d item(s) under prefix %q.\n",
				len(snapshot.Visits), len(snapshot.Items), cfg.Mar.RedisKeyPrefix)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Path to a JSON document with visits and items")
	return cmd
}

func runSeed(ctx context.Context, publisher snapshotPublisher, in io.Reader) (*models.MarSnapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var snapshot models.MarSnapshot
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Visits == nil {
		snapshot.Visits = []models.Visit{}
	}
	if snapshot.Items == nil {
		snapshot.Items = []models.MedicationItem{}
	}
	if snapshot.TakenAt.IsZero() {
		snapshot.TakenAt = time.Now().UTC()
	}
	if err := publisher.Replace(ctx, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")
			dept, _ := cmd.Flags().GetString("dept")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			wardRole := models.WardRole(strings.ToUpper(role))
			if !wardRole.Valid() {
				return fmt.Errorf("unsupported role %q", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Env == config.EnvProduction {
				return fmt.Errorf("token signing is disabled in production")
			}
			tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
			signed, expiresAt, err := tokens.IssueToken(user, wardRole, dept, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("user", "dev-user", "Subject user id")
	cmd.Flags().String("role", string(models.RoleNurse), "NURSE, PHYSICIAN, PHARMACIST or ADMIN")
	cmd.Flags().String("dept", "", "Department code claim")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}
