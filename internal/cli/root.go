package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"itemshare/internal/items/service"

	"github.com/spf13/cobra"
)

// Services is what the operator commands act on.
type Services struct {
	Items        service.ItemService
	Reservations service.ReservationService
	Advancer     service.AdvancerService
}

// Loader connects the services on first use. The returned func releases
// them.
type Loader func(ctx context.Context) (*Services, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string

	load     Loader
	services *Services
	release  func()
}

var ValidFormats = []string{"text", "json"}

// Execute runs the command line in args and releases whatever the command
// connected, whether or not it succeeded.
func Execute(ctx context.Context, load Loader, args []string, out io.Writer) error {
	cmd, opts := newRootCommand(load)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	defer opts.close()
	return cmd.ExecuteContext(ctx)
}

func NewRootCommand(load Loader) *cobra.Command {
	cmd, _ := newRootCommand(load)
	return cmd
}

func newRootCommand(load Loader) (*cobra.Command, *RootOptions) {
	opts := &RootOptions{load: load}

	cmd := &cobra.Command{
		Use:           "itemctl",
		Short:         "Operate the shared item reservation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewAdvanceCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewRemoveIdentityCommand(opts))
	cmd.AddCommand(NewDeleteAccountCommand(opts))

	return cmd, opts
}

func (o *RootOptions) connect(ctx context.Context) (*Services, error) {
	if o.services != nil {
		return o.services, nil
	}
	services, release, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	o.services, o.release = services, release
	return services, nil
}

func (o *RootOptions) close() {
	if o.release != nil {
		o.release()
		o.release = nil
	}
}

// print writes v as indented JSON, or hands the writer to text.
func (o *RootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
