package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
)

// client holds the connection flags shared by every API command.
type client struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &client{}

	rootCmd := &cobra.Command{
		Use:           "stockledger-cli",
		Short:         "StockLedger CLI tool",
		Long:          `A command line interface for checking and repairing StockLedger inventory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", envOr("STOCKLEDGER_URL", "http://localhost:8080"), "Base URL of the StockLedger API")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("STOCKLEDGER_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		reconcileCmd(c),
		verifyCmd(c),
		ledgerCmd(c),
		reportsCmd(c),
		tokenCmd(),
	)

	return rootCmd
}

func reconcileCmd(c *client) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "reconcile <sku>",
		Short: "Set a product's quantity to its latest ledger balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := http.MethodPost
			if check {
				method = http.MethodGet
			}

			var result map[string]any
			if err := c.do(method, "/api/v1/reconcile/"+url.PathEscape(args[0]), nil, &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result["corrected"] == true:
				fmt.Fprintf(out, "%s corrected: %v -> %v\n", args[0], result["recorded"], result["ledger_balance"])
			case result["is_reconciled"] == true:
				fmt.Fprintf(out, "%s reconciled at %v\n", args[0], result["ledger_balance"])
			default:
				fmt.Fprintf(out, "%s differs by %v\n", args[0], result["difference"])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Only compare, do not correct")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Check every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			query := url.Values{"fix": {strconv.FormatBool(fix)}}

			var report map[string]any
			if err := c.do(http.MethodGet, "/api/v1/reconcile/report?"+query.Encode(), nil, &report); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	reportCmd.Flags().Bool("fix", false, "Correct discrepancies as they are found")
	cmd.AddCommand(reportCmd)

	return cmd
}

func verifyCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <sku>",
		Short: "Replay a product's full ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := c.do(http.MethodGet, "/api/v1/ledger/verify/"+url.PathEscape(args[0]), nil, &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result["consistent"] == true {
				fmt.Fprintf(out, "Ledger check PASSED for %s (%v entries)\n", args[0], result["entries"])
				return nil
			}

			fmt.Fprintf(out, "Ledger check FAILED for %s\n", args[0])
			if err := printJSON(out, result); err != nil {
				return err
			}
			return fmt.Errorf("ledger for %s is inconsistent", args[0])
		},
	}
}

func ledgerCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var filters struct {
		sku, movementType, source, from, to string
		page, pageSize                      int
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIf(query, "sku", filters.sku)
			setIf(query, "type", filters.movementType)
			setIf(query, "source", filters.source)
			setIf(query, "date_from", filters.from)
			setIf(query, "date_to", filters.to)
			query.Set("page", strconv.Itoa(filters.page))
			query.Set("page_size", strconv.Itoa(filters.pageSize))

			var page ledgerPage
			if err := c.do(http.MethodGet, "/api/v1/ledger/?"+query.Encode(), nil, &page); err != nil {
				return err
			}
			return printLedger(cmd.OutOrStdout(), page)
		},
	}
	listCmd.Flags().StringVar(&filters.sku, "sku", "", "Filter by SKU")
	listCmd.Flags().StringVar(&filters.movementType, "type", "", "Filter by movement type (in, out, adjustment)")
	listCmd.Flags().StringVar(&filters.source, "source", "", "Filter by source")
	listCmd.Flags().StringVar(&filters.from, "from", "", "Earliest date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&filters.to, "to", "", "Latest date (YYYY-MM-DD)")
	listCmd.Flags().IntVar(&filters.page, "page", 1, "Page number")
	listCmd.Flags().IntVar(&filters.pageSize, "page-size", 20, "Entries per page")

	cmd.AddCommand(listCmd)
	return cmd
}

func reportsCmd(c *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inventory reports",
	}

	var from, to string
	var limit int

	report := func(use, short, path string, period bool) *cobra.Command {
		sub := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				query := url.Values{}
				if period {
					setIf(query, "from", from)
					setIf(query, "to", to)
				}
				if limit > 0 && use == "best-sellers" {
					query.Set("limit", strconv.Itoa(limit))
				}

				target := "/api/v1/reports/" + path
				if len(query) > 0 {
					target += "?" + query.Encode()
				}

				var result any
				if err := c.do(http.MethodGet, target, nil, &result); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			},
		}
		if period {
			sub.Flags().StringVar(&from, "from", "", "Period start (YYYY-MM-DD)")
			sub.Flags().StringVar(&to, "to", "", "Period end (YYYY-MM-DD)")
		}
		return sub
	}

	bestSellers := report("best-sellers", "Rank products by units sold", "best-sellers", true)
	bestSellers.Flags().IntVar(&limit, "limit", 10, "Number of products")

	cmd.AddCommand(
		report("turnover", "Estimate stock turnover", "turnover", true),
		report("low-stock", "List products at or below their reorder level", "low-stock", false),
		bestSellers,
		report("valuation", "Stock value at cost and retail", "valuation", false),
	)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token operations",
	}

	var username, role, secret string
	var expiration time.Duration

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an actor token locally with the server secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or JWT_SECRET)")
			}

			manager := auth.NewJWTManager(secret, expiration)
			token, err := manager.Generate(domain.Actor{Username: username, Role: domain.Role(role)})
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&username, "username", "", "Actor username")
	issueCmd.Flags().StringVar(&role, "role", string(domain.RoleStaff), "Actor role (admin, manager, staff)")
	issueCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	issueCmd.Flags().DurationVar(&expiration, "expiration", 24*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("username")

	cmd.AddCommand(issueCmd)
	return cmd
}

// do sends a request and decodes a successful JSON answer into v.
func (c *client) do(method, path string, body io.Reader, v any) error {
	req, err := http.NewRequest(method, strings.TrimRight(c.baseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := &http.Client{Timeout: c.timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

type ledgerEntry struct {
	SKU          string    `json:"sku"`
	ProductName  string    `json:"product_name"`
	Type         string    `json:"type"`
	Source       string    `json:"source"`
	Quantity     string    `json:"quantity"`
	BalanceAfter string    `json:"balance_after"`
	Reference    string    `json:"reference"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"created_at"`
}

type ledgerPage struct {
	Items      []ledgerEntry `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

func printLedger(w io.Writer, page ledgerPage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSKU\tPRODUCT\tTYPE\tSOURCE\tQTY\tBALANCE\tREF\tUSER")
	for _, e := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.DateTime),
			e.SKU,
			truncate(e.ProductName, 24),
			e.Type,
			e.Source,
			e.Quantity,
			e.BalanceAfter,
			truncate(e.Reference, 16),
			e.Username,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "page %d of %d (%d entries)\n", page.Page, page.TotalPages, page.Total)
	return err
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

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
