package main

import (
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront-bff/internal/catalog"
	"storefront-bff/internal/gallery"
)

var galleryFlags struct {
	search     string
	categories []string
	styles     []string
	sort       string
	page       int
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Search the catalog from the terminal",
	RunE:  runGallery,
}

func init() {
	f := galleryCmd.Flags()
	f.StringVarP(&galleryFlags.search, "search", "q", "", "name or description contains")
	f.StringSliceVar(&galleryFlags.categories, "category", nil, "category filter (repeatable)")
	f.StringSliceVar(&galleryFlags.styles, "style", nil, "style line filter (repeatable)")
	f.StringVar(&galleryFlags.sort, "sort", string(gallery.SortRelevance), "relevance|newest|price_asc|price_desc|name_asc|name_desc")
	f.IntVar(&galleryFlags.page, "page", 1, "page number")
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(cmd *cobra.Command, args []string) error {
	c, err := catalog.Load()
	if err != nil {
		return err
	}

	v := url.Values{
		"q":        {galleryFlags.search},
		"category": galleryFlags.categories,
		"style":    galleryFlags.styles,
		"sort":     {galleryFlags.sort},
		"page":     {strconv.Itoa(galleryFlags.page)},
	}
	q, err := gallery.ParseQuery(v)
	if err != nil {
		return err
	}
	res, err := gallery.Search(c.Products(), q, c.Categories(), c.StyleLines())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tCATEGORY\tSTYLE\tPRICE")
	for _, p := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Slug, p.Name, p.Category, p.StyleLine, p.BasePrice.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d item(s)\n", res.Page, res.TotalPages, res.TotalItems)
	return nil
}
