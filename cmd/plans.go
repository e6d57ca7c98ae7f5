package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/retaillab/markdown-cli/internal/model"
	"github.com/retaillab/markdown-cli/internal/store"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect saved markdown plans",
	Long:  "Commands for listing and viewing plans produced by the optimize command.",
}

// -- plans list --

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		plans, err := st.ListPlans(ctx, store.PlanFilter{
			Status: model.PlanStatus(status),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return eris.Wrap(err, "plans list")
		}

		if len(plans) == 0 {
			fmt.Fprintln(os.Stderr, "No plans found.")
			return nil
		}

		formatPlansList(os.Stdout, plans)
		return nil
	},
}

// -- plans show --

var plansShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show full details of a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		plan, err := st.GetPlan(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "plans show")
		}

		return printJSON(os.Stdout, plan)
	},
}

func formatPlansList(w io.Writer, plans []model.Plan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tWEEKS\tREVENUE\tDISCOUNTS")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\t%v\n",
			p.ID,
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.Status,
			len(p.Discounts),
			p.Revenue,
			p.Discounts,
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	plansListCmd.Flags().String("status", "", "filter by status (converged|failed)")
	plansListCmd.Flags().Int("limit", 20, "maximum plans to list")
	plansListCmd.Flags().Int("offset", 0, "rows to skip")

	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansShowCmd)
	rootCmd.AddCommand(plansCmd)
}
