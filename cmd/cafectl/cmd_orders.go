package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cafe-pos-backend/internal/cart"
	"cafe-pos-backend/internal/catalog"
	"cafe-pos-backend/internal/lifecycle"
	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/pricing"
)

// =============================================================================
// ORDER LISTING
// =============================================================================

var ordersStatus string

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, live := shop.Orders(cmd.Context())
		staleNotice(live)
		catalog.NewestFirst(orders)

		rows := make([][]string, 0, len(orders))
		for _, o := range orders {
			if ordersStatus != "" && string(o.Status) != ordersStatus {
				continue
			}
			rows = append(rows, []string{
				o.ID,
				time.UnixMilli(o.Timestamp).Format("2006-01-02 15:04"),
				o.CustomerName,
				string(o.UserType),
				strconv.Itoa(len(o.Items)),
				baht(o.TotalAmount),
				string(o.PaymentMethod),
				string(o.PaymentStatus),
				string(o.Status),
			})
		}
		return render([]string{"ID", "Time", "Customer", "Class", "Lines", "Total", "Method", "Payment", "Status"}, rows)
	},
}

// =============================================================================
// ORDER UPDATES
// =============================================================================

var statusCmd = &cobra.Command{
	Use:       "status <order-id> <pending|preparing|delivering|completed|cancelled>",
	Short:     "Move an order forward",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"pending", "preparing", "delivering", "completed", "cancelled"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.SetStatus(cmd.Context(), args[0], models.OrderStatus(args[1])); err != nil {
			return err
		}
		fmt.Printf("Order %s is %s\n", args[0], args[1])
		return nil
	},
}

var payCmd = &cobra.Command{
	Use:   "pay <order-id> <pending|paid>",
	Short: "Set an order's payment status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.SetPayment(cmd.Context(), args[0], models.PaymentStatus(args[1])); err != nil {
			return err
		}
		fmt.Printf("Payment for %s is %s\n", args[0], args[1])
		return nil
	},
}

var slipCmd = &cobra.Command{
	Use:   "slip <order-id> <image-file|url>",
	Short: "Attach a transfer slip; the order becomes a pending transfer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slip, err := loadAsset(args[1])
		if err != nil {
			return err
		}
		url, err := shop.AttachSlip(cmd.Context(), args[0], slip)
		if err != nil {
			return err
		}
		fmt.Printf("Slip attached to %s: %s\n", args[0], url)
		return nil
	},
}

// =============================================================================
// NEW ORDERS
// =============================================================================

var (
	orderItems    []string
	orderClass    string
	orderMethod   string
	orderName     string
	orderLocation string
	orderSlip     string
)

var posCmd = &cobra.Command{
	Use:   "pos",
	Short: "Ring up a counter sale",
	Long: `Ring up a counter sale. Items are product-id[:variant[:sweetness]][*qty],
for example --item P-2:iced:50%*2 --item P-5.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := fillCart(cmd.Context())
		if err != nil {
			return err
		}
		o, err := shop.POS(cmd.Context(), c, models.PaymentMethod(orderMethod))
		if err != nil {
			return err
		}
		printPlaced(o)
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place a customer order for delivery",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := fillCart(cmd.Context())
		if err != nil {
			return err
		}
		in := lifecycle.CheckoutInput{
			CustomerName:     orderName,
			DeliveryLocation: orderLocation,
			Method:           models.PaymentMethod(orderMethod),
		}
		if orderSlip != "" {
			slip, err := loadAsset(orderSlip)
			if err != nil {
				return err
			}
			in.Slip = &slip
		}
		o, err := shop.Checkout(cmd.Context(), c, in)
		if err != nil {
			return err
		}
		printPlaced(o)
		return nil
	},
}

func printPlaced(o models.Order) {
	rows := make([][]string, 0, len(o.Items)+1)
	for _, it := range o.Items {
		rows = append(rows, []string{
			it.Name, string(it.SelectedServingType), it.Sweetness,
			strconv.Itoa(it.Quantity), baht(it.AppliedPrice),
		})
	}
	rows = append(rows, []string{"Total", "", "", "", baht(o.TotalAmount)})
	if err := render([]string{"Item", "Variant", "Sweetness", "Qty", "Unit"}, rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	fmt.Printf("Order %s placed (%s, payment %s)\n", o.ID, o.Status, o.PaymentStatus)
	if o.SlipURL != "" {
		fmt.Println("Slip:", o.SlipURL)
	}
}

// fillCart prices the --item entries against the current menu.
func fillCart(ctx context.Context) (*cart.Cart, error) {
	if len(orderItems) == 0 {
		return nil, lifecycle.ErrEmptyCart
	}
	products, live := shop.Products(ctx)
	staleNotice(live)
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c := cart.New(models.CustomerClass(orderClass))
	for _, spec := range orderItems {
		id, variant, sweetness, qty, err := parseItem(spec)
		if err != nil {
			return nil, err
		}
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("item %q: no product %s on the menu", spec, id)
		}
		if variant == "" {
			if vs := pricing.Variants(p); len(vs) > 0 {
				variant = vs[0]
			}
		}
		item, err := c.Add(p, variant, sweetness)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", spec, err)
		}
		if qty > 1 {
			if _, err := c.AdjustQuantity(item.CartID, qty-1); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// parseItem reads id[:variant[:sweetness]][*qty].
func parseItem(spec string) (id string, variant models.ServingType, sweetness string, qty int, err error) {
	qty = 1
	if base, n, ok := strings.Cut(spec, "*"); ok {
		if qty, err = strconv.Atoi(n); err != nil || qty < 1 {
			return "", "", "", 0, fmt.Errorf("item %q: bad quantity", spec)
		}
		spec = base
	}
	parts := strings.SplitN(spec, ":", 3)
	id = parts[0]
	if id == "" {
		return "", "", "", 0, errors.New("item needs a product id")
	}
	if len(parts) > 1 {
		variant = models.ServingType(strings.ToLower(parts[1]))
	}
	sweetness = "100%"
	if len(parts) > 2 {
		sweetness = parts[2]
	}
	return id, variant, sweetness, qty, nil
}

// loadAsset reads a local image as an inline asset; anything that is not a
// readable file is taken as a URL.
func loadAsset(arg string) (models.Asset, error) {
	data, err := os.ReadFile(arg)
	if errors.Is(err, os.ErrNotExist) {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			return models.Ref(arg), nil
		}
		return models.Asset{}, fmt.Errorf("%s: no such file", arg)
	}
	if err != nil {
		return models.Asset{}, err
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(arg)))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return models.Inline(contentType, data), nil
}

func init() {
	ordersCmd.Flags().StringVar(&ordersStatus, "status", "", "only orders with this status")

	for _, cmd := range []*cobra.Command{posCmd, checkoutCmd} {
		f := cmd.Flags()
		f.StringArrayVarP(&orderItems, "item", "i", nil, "product-id[:variant[:sweetness]][*qty] (repeatable)")
		f.StringVar(&orderClass, "class", string(models.ClassGeneral), "general, teacher or student")
		f.StringVar(&orderMethod, "method", string(models.PaymentCash), "cash or transfer")
	}
	checkoutCmd.Flags().StringVar(&orderName, "name", "", "customer name")
	checkoutCmd.Flags().StringVar(&orderLocation, "location", "", "delivery location")
	checkoutCmd.Flags().StringVar(&orderSlip, "slip", "", "transfer slip image file or URL")
	_ = checkoutCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(ordersCmd, statusCmd, payCmd, slipCmd, posCmd, checkoutCmd)
}
