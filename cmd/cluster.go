package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retaillab/markdown-cli/internal/cluster"
	"github.com/retaillab/markdown-cli/internal/ingest"
)

var (
	clusterXLSXPath string
	clusterSheet    string
	clusterSkipRows int
	clusterSegments int
)

// segmentReport is the cluster command's JSON output.
type segmentReport struct {
	Segments     int            `json:"segments"`
	Stores       int            `json:"stores"`
	Assignments  map[string]int `json:"assignments"`
	Sizes        map[int]int    `json:"sizes"`
	MergeHeights []float64      `json:"merge_heights"`
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Segment stores by markdown sensitivity and profitability",
	RunE: func(cmd *cobra.Command, _ []string) error {
		skip := clusterSkipRows
		if skip < 0 {
			skip = cfg.Cluster.SkipRows
		}
		k := clusterSegments
		if k <= 0 {
			k = cfg.Cluster.Segments
		}

		recs, err := ingest.ReadStoreXLSX(clusterXLSXPath, ingest.XLSXOptions{
			SheetName: clusterSheet,
			SkipRows:  skip,
		})
		if err != nil {
			return err
		}

		feats, err := cluster.BuildFeatures(recs)
		if err != nil {
			return err
		}

		dend, err := cluster.Ward(feats.Matrix)
		if err != nil {
			return err
		}
		labels := dend.Cut(k)

		report := segmentReport{
			Segments:    k,
			Stores:      len(feats.Stores),
			Assignments: make(map[string]int, len(feats.Stores)),
			Sizes:       make(map[int]int, k),
		}
		for i, id := range feats.Stores {
			report.Assignments[id] = labels[i]
			report.Sizes[labels[i]]++
		}
		for _, m := range dend.Merges {
			report.MergeHeights = append(report.MergeHeights, m.Distance)
		}

		zap.L().Info("stores segmented",
			zap.Int("stores", report.Stores),
			zap.Int("segments", k),
		)

		return printJSON(os.Stdout, report)
	},
}

func init() {
	clusterCmd.Flags().StringVar(&clusterXLSXPath, "xlsx", "", "path to the store performance workbook (required)")
	clusterCmd.Flags().StringVar(&clusterSheet, "sheet", "", "sheet name (default first sheet)")
	clusterCmd.Flags().IntVar(&clusterSkipRows, "skip-rows", -1, "header rows to skip (default from config)")
	clusterCmd.Flags().IntVar(&clusterSegments, "segments", 0, "number of segments to cut (default from config)")
	_ = clusterCmd.MarkFlagRequired("xlsx")
	rootCmd.AddCommand(clusterCmd)
}
