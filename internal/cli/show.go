package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newShowCommand(a *app) *cobra.Command {
	var (
		vehicleID  string
		sharePhone string
		share      bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a vehicle and its documents as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(vehicleID)
			if err != nil {
				return fmt.Errorf("invalid vehicle ID %q: %w", vehicleID, err)
			}
			return a.runShow(cmd.Context(), id, share || sharePhone != "", sharePhone)
		},
	}
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "vehicle ID")
	cmd.Flags().BoolVar(&share, "share", false, "print a shareable summary of the document links instead")
	cmd.Flags().StringVar(&sharePhone, "phone", "", "address the share link to this phone number (implies --share)")
	_ = cmd.MarkFlagRequired("vehicle")
	return cmd
}

func (a *app) runShow(ctx context.Context, vehicleID uuid.UUID, share bool, phone string) error {
	cfg, err := a.setup()
	if err != nil {
		return err
	}

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	if share {
		resp, err := d.service.ShareDocuments(ctx, vehicleID, phone)
		if err != nil {
			return describe(err)
		}
		return writeJSON(a.stdout, resp)
	}

	v, err := d.service.GetVehicle(ctx, vehicleID)
	if err != nil {
		return describe(err)
	}
	return writeJSON(a.stdout, v)
}
