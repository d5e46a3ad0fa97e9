package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"docportal/internal/viewmodel"
)

func newVersionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List, upload and download document versions",
	}
	cmd.AddCommand(
		newVersionsListCommand(a),
		newVersionsUploadCommand(a),
		newVersionsDownloadCommand(a),
	)
	return cmd
}

func (a *app) detail() *viewmodel.Detail {
	return viewmodel.NewDetail(a.client, viewmodel.FileSaver{Dir: a.cfg.DownloadDir}, viewmodel.WithDetailLogger(a.log))
}

func newVersionsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list DOCUMENT_ID",
		Short:   "List the versions of a document, oldest first",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d := a.detail()
			if err := d.Load(cmd.Context(), id); err != nil {
				return err
			}
			snap := d.Snapshot()
			if snap.VersionsErr != nil {
				return snap.VersionsErr
			}
			printVersions(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func newVersionsUploadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "upload DOCUMENT_ID FILE",
		Short:   "Upload FILE as the next version of a document",
		Args:    cobra.ExactArgs(2),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			d := a.detail()
			if err := d.Load(cmd.Context(), id); err != nil {
				return err
			}
			v, err := d.Upload(cmd.Context(), filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as version %d\n", v.FileName, v.VersionNumber)
			printVersions(cmd.OutOrStdout(), d.Snapshot())
			return nil
		},
	}
}

func newVersionsDownloadCommand(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:     "download DOCUMENT_ID VERSION_NUMBER",
		Short:   "Save a version under its original file name",
		Args:    cobra.ExactArgs(2),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version number %q", args[1])
			}
			if dir != "" {
				a.cfg.DownloadDir = dir
			}

			d := a.detail()
			if err := d.Load(cmd.Context(), id); err != nil {
				return err
			}
			if err := d.Snapshot().VersionsErr; err != nil {
				return err
			}
			v, ok := d.Version(number)
			if !ok {
				return fmt.Errorf("document #%d has no version %d", id, number)
			}
			path, err := d.Download(cmd.Context(), v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", path, viewmodel.FormatFileSize(v.FileSize))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Download directory (default from config)")
	return cmd
}
