package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/export"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

var (
	searchQueries   []string
	searchImages    []string
	searchPlatforms []string
	searchJSON      bool
	searchOut       string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search marketplaces for suppliers",
	Long:  "Runs text and image searches across the configured marketplaces and prints grouped supplier results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(searchQueries) == 0 && len(searchImages) == 0 {
			return eris.New("at least one --query or --image is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		platforms := make([]model.PlatformType, 0, len(searchPlatforms))
		for _, p := range searchPlatforms {
			pt, err := model.ParsePlatform(p)
			if err != nil {
				return err
			}
			platforms = append(platforms, pt)
		}

		inputs, attachments, err := buildInputs(searchQueries, searchImages)
		if err != nil {
			return err
		}

		env, err := initSearch(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Orchestrator.Search(ctx, inputs, platforms, attachments)
		if err != nil {
			return err
		}

		if searchOut != "" {
			if err := export.WriteXLSX(searchOut, result); err != nil {
				return err
			}
			zap.L().Info("workbook written",
				zap.String("path", searchOut),
				zap.Int("suppliers", len(result.Results)),
			)
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		formatSearchResult(os.Stdout, result)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchQueries, "query", nil, "text query (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchImages, "image", nil, "image file to search by (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchPlatforms, "platforms", nil, "platforms to search (alibaba, made-in-china; default all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the full result as JSON")
	searchCmd.Flags().StringVar(&searchOut, "out", "", "write results to an XLSX workbook at this path")
	rootCmd.AddCommand(searchCmd)
}

// buildInputs turns CLI flags into search inputs: one text input per
// --query and one image input (plus its attachment) per --image file.
func buildInputs(queries, images []string) ([]model.SearchInput, map[string]model.ImageAttachment, error) {
	inputs := make([]model.SearchInput, 0, len(queries)+len(images))
	attachments := map[string]model.ImageAttachment{}

	for _, q := range queries {
		inputs = append(inputs, model.SearchInput{
			ID:    uuid.NewString(),
			Type:  model.InputTypeText,
			Value: q,
		})
	}
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "read image %s", path)
		}
		id := uuid.NewString()
		name := filepath.Base(path)
		inputs = append(inputs, model.SearchInput{
			ID:    id,
			Type:  model.InputTypeImage,
			Value: name,
		})
		attachments[id] = model.ImageAttachment{
			InputID:  id,
			Filename: name,
			MIME:     imageMIME(path),
			Data:     data,
		}
	}
	return inputs, attachments, nil
}

// imageMIME guesses a content type from the file extension.
func imageMIME(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// formatSearchResult writes a tabular supplier summary to w.
func formatSearchResult(out io.Writer, result *model.AggregatedSearchResult) {
	if len(result.Results) == 0 {
		_, _ = fmt.Fprintln(out, "No suppliers found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SUPPLIER\tPLATFORM\tLOCATION\tPRODUCTS\tPRICE\tMOQ")
	_, _ = fmt.Fprintln(w, "--------\t--------\t--------\t--------\t-----\t---")

	for _, s := range result.Results {
		name := s.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			name,
			s.Platform,
			s.Location,
			len(s.Products),
			orDash(s.Price),
			orDash(s.MOQ),
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d suppliers across %d inputs\n", len(result.Results), len(result.Inputs))
}

// orDash renders an absent optional field as a dash.
func orDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
