// Command cafectl is a terminal client for the shop: it browses the menu,
// rings up counter sales and manages orders through the gateway, falling back
// to a local mirror when the gateway cannot be reached.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cafe-pos-backend/internal/client"
	"cafe-pos-backend/internal/config"
	"cafe-pos-backend/internal/logging"
	"cafe-pos-backend/internal/mirror"
	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/storefront"
)

// =============================================================================
// GLOBAL FLAGS & STATE
// =============================================================================

var (
	apiURL    string
	token     string
	mirrorDir string
	timeout   time.Duration
	verbose   bool

	log   *logrus.Logger
	api   *client.Client
	local *mirror.Mirror
	shop  *storefront.Storefront
)

var rootCmd = &cobra.Command{
	Use:           "cafectl",
	Short:         "Storefront and point-of-sale client for the cafe backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		log = logging.New(level, "text")
		log.SetOutput(os.Stderr)

		api = client.New(apiURL, token, timeout, log)
		if !needsShop(cmd) {
			return nil
		}
		var err error
		local, err = mirror.Open(mirrorDir, log)
		if err != nil {
			return err
		}
		shop = storefront.New(api, local, log)
		return nil
	},
}

// noMirror marks commands that talk to the gateway directly.
var noMirror = map[string]string{"mirror": "none"}

func needsShop(cmd *cobra.Command) bool {
	return cmd.Annotations["mirror"] != "none"
}

func init() {
	config.LoadDotEnv()
	cfg := config.LoadClient()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&apiURL, "api", cfg.APIURL, "gateway exec endpoint (CAFE_API_URL)")
	pf.StringVar(&token, "token", cfg.Token, "staff bearer token (CAFE_TOKEN)")
	pf.StringVar(&mirrorDir, "mirror", cfg.MirrorDir, "local mirror directory (CAFE_MIRROR_DIR)")
	pf.DurationVar(&timeout, "timeout", cfg.Timeout, "request timeout (CAFE_TIMEOUT)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	err := rootCmd.Execute()
	if local != nil {
		if cerr := local.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func render(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header(header)
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			return err
		}
	}
	return table.Render()
}

func staleNotice(live bool) {
	if !live {
		fmt.Fprintln(os.Stderr, "(gateway unreachable, showing local copy)")
	}
}

func baht(v float64) string {
	return "฿" + models.FormatAmount(v)
}

func tag(b bool, label string) string {
	if b {
		return label
	}
	return ""
}
