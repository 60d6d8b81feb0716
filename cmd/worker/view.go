package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"solarintel/internal/formatter"
	"solarintel/internal/geo"
	"solarintel/internal/models"
	"solarintel/internal/pipeline"
	"solarintel/internal/store"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		view       formatter.View
		listGroups bool
	)

	cmd := &cobra.Command{
		Use:   "show <pipeline>",
		Short: "Print a pipeline dataset as a Markdown table, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, ok := a.cfg.GetPipeline(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errUnknownPipeline, args[0])
			}

			st, err := store.Open(pc.Store, a.cfg.DatasetPath(&pc), pc.Name, pipeline.LayoutFor(pc))
			if err != nil {
				return err
			}
			defer st.Close()

			ds, err := st.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if listGroups {
				fmt.Fprintln(out, strings.Join(formatter.Groups(ds), "\n"))

				return nil
			}

			view.Title = pc.Name
			view.GroupColumn = pc.GroupColumn

			fmt.Fprint(out, formatter.RenderDataset(ds, view))

			return nil
		},
	}

	cmd.Flags().StringVar(&view.Group, "group", "", "only show records for this company or country")
	cmd.Flags().IntVarP(&view.Limit, "limit", "n", 50, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&view.TitleWidth, "title-width", 80, "truncate titles to this display width")
	cmd.Flags().BoolVar(&listGroups, "groups", false, "list the distinct group values instead")

	return cmd
}

func newMapCmd(a *app) *cobra.Command {
	var (
		entitiesFile string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print competitor map markers with co-located points spread apart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := entitiesFile
			if path == "" {
				path = a.cfg.Geo.EntitiesFile
			}

			entities, err := geo.LoadEntities(path)
			if err != nil {
				return err
			}

			placed := geo.Decollide(entities, geo.Options{
				Precision: a.cfg.GeoPrecision(),
				RadiusM:   a.cfg.Geo.RadiusM,
			})
			lat, lon := geo.Centroid(entities)

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(struct {
					Center   [2]float64              `json:"center"`
					Entities []models.LocatedEntity `json:"entities"`
				}{
					Center:   [2]float64{lat, lon},
					Entities: placed,
				})
			}

			fmt.Fprint(out, formatter.RenderEntities(placed, lat, lon))

			return nil
		},
	}

	cmd.Flags().StringVar(&entitiesFile, "entities", "", "YAML entity list (default geo.entities_file, else built-in headquarters)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON with marker labels")

	return cmd
}
