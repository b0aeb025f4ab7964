package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cafe-pos-backend/internal/middleware"
)

// =============================================================================
// STAFF COMMANDS
// =============================================================================

var loginCmd = &cobra.Command{
	Use:         "login <username> <password>",
	Short:       "Get a staff token; export it as CAFE_TOKEN",
	Args:        cobra.ExactArgs(2),
	Annotations: noMirror,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := api.Login(cmd.Context(), loginURL(apiURL), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

// loginURL swaps the trailing /exec of the gateway endpoint for /login.
func loginURL(execURL string) string {
	return strings.TrimSuffix(strings.TrimSuffix(execURL, "/"), "/exec") + "/login"
}

var hashPasswordCmd = &cobra.Command{
	Use:         "hash-password <password>",
	Short:       "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:        cobra.ExactArgs(1),
	Annotations: noMirror,
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := middleware.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var summaryPeriod string

var summaryCmd = &cobra.Command{
	Use:         "summary",
	Short:       "Sales summary for a period (day, month, year or all)",
	Annotations: noMirror,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := api.SalesSummary(cmd.Context(), summaryPeriod)
		if err != nil {
			return err
		}

		rows := [][]string{
			{"Orders", strconv.Itoa(s.TotalCount)},
			{"Revenue", baht(s.TotalRevenue)},
			{"Paid", fmt.Sprintf("%s (%d)", baht(s.PaidRevenue), s.PaidCount)},
			{"Pending", fmt.Sprintf("%s (%d)", baht(s.PendingRevenue), s.PendingCount)},
			{"Cancelled", strconv.Itoa(s.CancelledCount)},
		}
		for _, class := range sortedKeys(s.RevenueByUserType) {
			rows = append(rows, []string{"Class " + string(class), baht(s.RevenueByUserType[class])})
		}
		for _, m := range s.PaymentMethods {
			rows = append(rows, []string{"Method " + string(m.PaymentMethod), fmt.Sprintf("%s (%d)", baht(m.TotalAmount), m.Count)})
		}
		for _, status := range sortedKeys(s.StatusCounts) {
			rows = append(rows, []string{"Status " + string(status), strconv.Itoa(s.StatusCounts[status])})
		}
		fmt.Printf("Period: %s\n", s.Period)
		return render([]string{"Metric", "Value"}, rows)
	},
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var verifyAmount float64

var verifySlipCmd = &cobra.Command{
	Use:         "verify-slip <image-file|url>",
	Short:       "Check a transfer slip against the expected amount",
	Args:        cobra.ExactArgs(1),
	Annotations: noMirror,
	RunE: func(cmd *cobra.Command, args []string) error {
		slip, err := loadAsset(args[0])
		if err != nil {
			return err
		}
		res, err := api.VerifySlip(cmd.Context(), slip, verifyAmount)
		if err != nil {
			return err
		}
		verdict := "VALID"
		if !res.IsValid {
			verdict = "NOT VALID"
		}
		fmt.Printf("%s: detected %s, expected %s\n%s\n", verdict, baht(res.DetectedAmount), baht(verifyAmount), res.Reason)
		if !res.IsValid {
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryPeriod, "period", "p", "day", "day, month, year or all")
	verifySlipCmd.Flags().Float64Var(&verifyAmount, "amount", 0, "expected transfer amount")
	_ = verifySlipCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(loginCmd, hashPasswordCmd, summaryCmd, verifySlipCmd)
}
