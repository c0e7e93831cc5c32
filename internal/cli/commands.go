package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"itemshare/pkg/model"

	"github.com/spf13/cobra"
)

func NewAdvanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Run one advancer sweep over every due item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := services.Advancer.Advance(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), summary, func(w io.Writer) {
				fmt.Fprintf(w, "scanned=%d mutated=%d failed=%d notifications=%d\n",
					summary.Scanned, summary.Mutated, summary.Failed, summary.Notifications)
			})
		},
	}
}

type showOptions struct {
	*RootOptions
	As string
}

func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &showOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Print an item's holder and reservation queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			view, err := services.Items.GetByID(cmd.Context(), args[0], opts.As)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), view, func(w io.Writer) { writeItem(w, view) })
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "", "identity to read the item as (must be a stakeholder)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func NewRemoveIdentityCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-identity <item-id> <identity>",
		Short: "Release an identity's hold and cancel its reservations on one item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := services.Reservations.RemoveIdentity(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res.Item, func(w io.Writer) {
				writeItem(w, res.Item)
				fmt.Fprintf(w, "notifications sent: %d\n", len(res.Notifications))
			})
		},
	}
}

func NewDeleteAccountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-account <identity>",
		Short: "Delete an identity's items and remove it from every other item",
		Long: `Delete an identity's items and remove it from every other item.

The cleanup can be rerun; items that failed the first time are retried and
items already cleaned are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			cleanup, err := services.Items.DeleteAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := opts.print(cmd.OutOrStdout(), cleanup, func(w io.Writer) {
				fmt.Fprintf(w, "deleted=%d cleaned=%d failed=%d\n",
					len(cleanup.DeletedItems), len(cleanup.CleanedItems), cleanup.Failed)
			}); err != nil {
				return err
			}
			if cleanup.Failed > 0 {
				return fmt.Errorf("%d items could not be cleaned; rerun to retry", cleanup.Failed)
			}
			return nil
		},
	}
}

func writeItem(w io.Writer, view *model.ItemView) {
	fmt.Fprintf(w, "%s (%s)\n", view.Name, view.ID)
	fmt.Fprintf(w, "  owner:  %s\n", view.CreatedBy)
	fmt.Fprintf(w, "  shared: %s\n", strings.Join(view.SharedWith, ", "))

	switch {
	case view.Current == nil:
		fmt.Fprintln(w, "  status: available")
	case view.Current.Until == nil:
		fmt.Fprintf(w, "  status: %s hold by %s, no expiry\n", view.Current.Kind, strings.Join(view.Current.Holders, ", "))
	default:
		fmt.Fprintf(w, "  status: %s hold by %s until %s\n",
			view.Current.Kind, strings.Join(view.Current.Holders, ", "), view.Current.Until.Format(time.RFC3339))
	}

	for _, r := range view.Queue {
		fmt.Fprintf(w, "  [%d] %s %s - %s\n", r.Index, r.Holder, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
}
