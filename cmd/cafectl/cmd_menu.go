package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cafe-pos-backend/internal/catalog"
	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/pricing"
)

// =============================================================================
// MENU COMMANDS
// =============================================================================

var (
	menuCategory string
	menuSearch   string
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "List products, recommended first",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, live := shop.Menu(cmd.Context(), menuCategory, menuSearch)
		staleNotice(live)

		rows := make([][]string, 0, len(products))
		for _, p := range products {
			variants := make([]string, 0, 4)
			for _, v := range pricing.Variants(p) {
				variants = append(variants, string(v))
			}
			rows = append(rows, []string{
				p.ID,
				p.Name,
				p.Category,
				string(p.Kind()),
				strings.Join(variants, ","),
				baht(pricing.StartingPrice(p)),
				strings.TrimSpace(tag(p.IsRecommended, "recommended") + " " + tag(p.IsPopular, "popular")),
			})
		}
		return render([]string{"ID", "Name", "Category", "Type", "Variants", "From", "Tags"}, rows)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List menu categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, live := shop.Categories(cmd.Context())
		staleNotice(live)

		rows := [][]string{{"", catalog.All}, {"", catalog.Recommended}}
		for _, c := range cats {
			rows = append(rows, []string{c.ID, c.Name})
		}
		return render([]string{"ID", "Name"}, rows)
	},
}

// =============================================================================
// MENU ADMIN
// =============================================================================

var (
	productName        string
	productCategory    string
	productType        string
	productDescription string
	productImage       string
	productPrices      []string
	productPopular     bool
	productRecommended bool
)

var productSaveCmd = &cobra.Command{
	Use:   "save-product <id>",
	Short: "Create or replace a product",
	Long: `Create or replace a product. Prices are given per serving variant as
variant=general/teacher/student, for example --price iced=45/40/35.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prices, err := parsePrices(productPrices)
		if err != nil {
			return err
		}
		p := models.Product{
			ID:            args[0],
			Name:          productName,
			Category:      productCategory,
			ProductType:   models.ProductType(productType),
			Prices:        prices,
			Description:   productDescription,
			IsPopular:     productPopular,
			IsRecommended: productRecommended,
		}
		if productImage != "" {
			if p.Image, err = loadAsset(productImage); err != nil {
				return err
			}
		}
		if err := shop.SaveProduct(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Println("Saved product", p.ID)
		return nil
	},
}

var productDeleteCmd = &cobra.Command{
	Use:   "delete-product <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.DeleteProduct(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted product", args[0])
		return nil
	},
}

var categorySaveCmd = &cobra.Command{
	Use:   "save-category <id> <name>",
	Short: "Create or rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.SaveCategory(cmd.Context(), models.Category{ID: args[0], Name: args[1]}); err != nil {
			return err
		}
		fmt.Println("Saved category", args[0])
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete-category <id>",
	Short: "Delete a category; products keep their category name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shop.DeleteCategory(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted category", args[0])
		return nil
	},
}

// parsePrices reads variant=general/teacher/student entries.
func parsePrices(entries []string) (models.Prices, error) {
	prices := models.Prices{}
	for _, e := range entries {
		variant, tiers, ok := strings.Cut(e, "=")
		v := models.ServingType(strings.ToLower(strings.TrimSpace(variant)))
		if !ok || !v.Valid() {
			return nil, fmt.Errorf("price %q: want variant=general/teacher/student", e)
		}
		var t models.PriceTier
		if _, err := fmt.Sscanf(tiers, "%g/%g/%g", &t.General, &t.Teacher, &t.Student); err != nil {
			return nil, fmt.Errorf("price %q: %w", e, err)
		}
		prices[v] = t
	}
	return prices, nil
}

func init() {
	menuCmd.Flags().StringVarP(&menuCategory, "category", "c", "", "category name, All or Recommended")
	menuCmd.Flags().StringVarP(&menuSearch, "search", "s", "", "match product names")

	f := productSaveCmd.Flags()
	f.StringVar(&productName, "name", "", "product name")
	f.StringVar(&productCategory, "category", "", "category name")
	f.StringVar(&productType, "type", string(models.ProductDrink), "drink or snack")
	f.StringVar(&productDescription, "description", "", "description")
	f.StringVar(&productImage, "image", "", "image file or URL")
	f.StringArrayVar(&productPrices, "price", nil, "variant=general/teacher/student (repeatable)")
	f.BoolVar(&productPopular, "popular", false, "mark as popular")
	f.BoolVar(&productRecommended, "recommended", false, "mark as recommended")
	_ = productSaveCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(menuCmd, categoriesCmd, productSaveCmd, productDeleteCmd, categorySaveCmd, categoryDeleteCmd)
}
