package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/vehicle"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/spf13/cobra"
)

type submitOptions struct {
	vehicleID string
	manifest  string
	files     []string
	deletes   []string
}

func newSubmitCommand(a *app) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Upload staged documents and save a vehicle form",
		Long: `Stages local files and deletions on a vehicle's document form, then submits it.

Files and deletions come from a YAML manifest, repeated flags, or both:

  fleetctl submit --vehicle ID --file rc=scans/rc.pdf --delete insurance=ID/insurance/old.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSubmit(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.vehicleID, "vehicle", "", "vehicle ID (overrides the manifest)")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "YAML manifest describing the submission")
	cmd.Flags().StringArrayVar(&opts.files, "file", nil, "stage a file as category=path (repeatable)")
	cmd.Flags().StringArrayVar(&opts.deletes, "delete", nil, "delete a stored document as category=path (repeatable)")
	return cmd
}

// resolveManifest merges the manifest file with command line flags
func (o *submitOptions) resolveManifest() (*Manifest, error) {
	m := &Manifest{}
	if o.manifest != "" {
		loaded, err := LoadManifest(o.manifest)
		if err != nil {
			return nil, err
		}
		m = loaded
	}
	if o.vehicleID != "" {
		m.Vehicle = o.vehicleID
	}

	var err error
	if m.Files, err = AddPairs(m.Files, o.files); err != nil {
		return nil, fmt.Errorf("--file: %w", err)
	}
	if m.Delete, err = AddPairs(m.Delete, o.deletes); err != nil {
		return nil, fmt.Errorf("--delete: %w", err)
	}
	if m.Vehicle == "" {
		return nil, fmt.Errorf("vehicle ID is required (--vehicle or manifest)")
	}
	return m, nil
}

func (a *app) runSubmit(ctx context.Context, opts *submitOptions) error {
	manifest, err := opts.resolveManifest()
	if err != nil {
		return err
	}
	vehicleID, err := uuid.Parse(manifest.Vehicle)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID %q: %w", manifest.Vehicle, err)
	}

	cfg, err := a.setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, vehicle.WithProgressTracker(newConsoleProgress(a.stderr)))
	if err != nil {
		return err
	}
	defer d.Close()

	form, err := d.service.OpenForm(ctx, vehicleID)
	if err != nil {
		return describe(err)
	}
	if err := manifest.Apply(form); err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "uploading %d file(s) for vehicle %s\n", form.PendingFiles(), vehicleID)

	result, err := d.service.SubmitForm(ctx, form)
	if err != nil {
		return describe(err)
	}

	for _, failure := range result.DeletionErrors {
		fmt.Fprintf(a.stderr, "warning: could not delete %s document %s: %s\n", failure.Category, failure.Path, failure.Error)
	}
	return writeJSON(a.stdout, result)
}

// describe flattens an AppError, including its per-field messages
func describe(err error) error {
	appErr, ok := common.AsAppError(err)
	if !ok || len(appErr.Fields) == 0 {
		return err
	}

	fields := make([]string, 0, len(appErr.Fields))
	for field := range appErr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msg := appErr.Message
	for _, field := range fields {
		msg += fmt.Sprintf("\n  %s: %s", field, appErr.Fields[field])
	}
	return fmt.Errorf("%s", msg)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
