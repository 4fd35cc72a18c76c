package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/auth"
	"github.com/iho/assetledger/internal/infrastructure/fixture"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "assetledger-cli",
		Short:         "AssetLedger CLI tool",
		Long:          `A command line interface for depreciation schedules and the AssetLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the AssetLedger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("ASSETLEDGER_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(consistencyCmd())

	rootCmd.AddCommand(scheduleCmd(), postCmd(), journalCmd(), ledgerCmd, tokenCmd())
	return rootCmd
}

func scheduleCmd() *cobra.Command {
	var fixturePath, assetID, period string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print an asset's depreciation schedule from a fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := domain.ParsePeriod(period)
			if err != nil {
				return err
			}

			ds, err := fixture.Load(fixturePath)
			if err != nil {
				return err
			}

			var asset *domain.Asset
			for _, a := range ds.Assets {
				if a.ID == assetID {
					asset = a
					break
				}
			}
			if asset == nil {
				return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetID)
			}

			var disposal *domain.Disposal
			for _, d := range ds.Disposals {
				if d.AssetID == assetID {
					disposal = d
					break
				}
			}

			schedule, err := domain.BuildSchedule(asset, disposal, p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s, %d months, %s)\n", asset.ID, truncate(asset.Name, 30), asset.Method, asset.LifeMonths, asset.Currency)
			fmt.Fprintf(out, "%-8s %18s %18s %18s\n", "PERIOD", "OPENING", "DEPRECIATION", "CLOSING")
			for _, l := range schedule {
				fmt.Fprintf(out, "%-8s %18s %18s %18s\n", l.Period, l.Opening.StringFixed(2), l.Depreciation.StringFixed(2), l.Closing.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "fixtures/demo.yaml", "Fixture dataset path")
	cmd.Flags().StringVar(&assetID, "asset", "", "Asset ID")
	cmd.Flags().StringVar(&period, "period", "", "Viewed period (YYYY-MM)")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func postCmd() *cobra.Command {
	var entity, period, key string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post depreciation and pending disposals for an entity and period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParsePeriod(period); err != nil {
				return err
			}

			path := fmt.Sprintf("/api/v1/entities/%s/depreciation/%s/post", url.PathEscape(entity), period)
			headers := map[string]string{}
			if key != "" {
				headers["Idempotency-Key"] = key
			}

			status, body, err := call(cmd.Context(), http.MethodPost, path, headers)
			if err != nil {
				return err
			}

			var resp dto.PostingResponse
			if err := json.Unmarshal(body, &resp); err != nil || resp.Entity == "" {
				return apiError(status, body)
			}

			out := cmd.OutOrStdout()
			if !resp.Posted {
				fmt.Fprintf(out, "Not posted: %s\n", resp.Reason)
				return nil
			}
			fmt.Fprintf(out, "Posted %s %s total %s\n", resp.Entity, resp.Period, resp.Total.StringFixed(2))
			for _, e := range resp.Entries {
				fmt.Fprintf(out, "  %s %s\n", e.ID, e.TotalDebit.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "Entity code")
	cmd.Flags().StringVar(&period, "period", "", "Period (YYYY-MM)")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "Idempotency key for safe retries")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func journalCmd() *cobra.Command {
	var entity, period string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if entity != "" {
				q.Set("entity", entity)
			}
			if period != "" {
				q.Set("period", period)
			}
			path := "/api/v1/journal"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			status, body, err := call(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return apiError(status, body)
			}

			var resp dto.ListResponse[*dto.JournalEntryResponse]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, resp.Items)
			}
			if len(resp.Items) == 0 {
				fmt.Fprintln(out, "No journal entries")
				return nil
			}
			fmt.Fprintf(out, "%-28s %-6s %-8s %-5s %18s\n", "ID", "ENTITY", "PERIOD", "KIND", "DEBIT")
			for _, e := range resp.Items {
				fmt.Fprintf(out, "%-28s %-6s %-8s %-5s %18s\n", truncate(e.ID, 28), e.Entity, e.Period, e.Kind, e.TotalDebit.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "Entity code")
	cmd.Flags().StringVar(&period, "period", "", "Period (YYYY-MM)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := call(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil)
			if err != nil {
				return err
			}

			var resp dto.ConsistencyResponse
			if status != http.StatusOK && status != http.StatusConflict {
				return apiError(status, body)
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Debits:  %s\nCredits: %s\n", resp.TotalDebit.StringFixed(2), resp.TotalCredit.StringFixed(2))
			if !resp.Balanced {
				fmt.Fprintln(out, "Consistency check FAILED")
				return errors.New("ledger is inconsistent")
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var secret, user, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			tok, err := auth.NewJWTManager(secret, ttl).Generate(domain.Principal{
				ID:   user,
				Role: domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&user, "user", "", "Subject of the token")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "Role: viewer, clerk or controller")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func call(ctx context.Context, method, path string, headers map[string]string) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, nil)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(status int, body []byte) error {
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		if e.Message != "" {
			return fmt.Errorf("request failed (status %d): %s: %s", status, e.Error, e.Message)
		}
		return fmt.Errorf("request failed (status %d): %s", status, e.Error)
	}
	return fmt.Errorf("request failed (status %d): %s", status, truncate(string(body), 200))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
