package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"docportal/internal/gateway"
	"docportal/internal/model"
	"docportal/internal/viewmodel"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newDocsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Browse and manage documents",
	}
	cmd.AddCommand(
		newDocsListCommand(a),
		newDocsGetCommand(a),
		newDocsCreateCommand(a),
		newDocsUpdateCommand(a),
		newDocsStatusCommand(a),
		newDocsDeleteCommand(a),
	)
	return cmd
}

func newDocsListCommand(a *app) *cobra.Command {
	var p gateway.ListParams
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List documents one page at a time",
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s, ok := model.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				p.Status = s
			}
			list := viewmodel.NewList(a.client, viewmodel.WithParams(p), viewmodel.WithListLogger(a.log))
			if err := list.Mount(cmd.Context()); err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), list.Snapshot())
			return nil
		},
	}
	cmd.Flags().IntVar(&p.Page, "page", 0, "Page index, starting at 0")
	cmd.Flags().IntVar(&p.Size, "size", viewmodel.DefaultPageSize, "Page size")
	cmd.Flags().StringVar(&p.Title, "title", "", "Case-insensitive title substring")
	cmd.Flags().StringVar(&status, "status", "", "DRAFT, PUBLISHED or ARCHIVED")
	cmd.Flags().StringVar(&p.SortBy, "sort", gateway.DefaultSortBy, "createdAt, updatedAt, title or status")
	cmd.Flags().StringVar(&p.SortDirection, "dir", gateway.DefaultSortDirection, "ASC or DESC")
	return cmd
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printPage(out io.Writer, s viewmodel.ListSnapshot) {
	page := s.Page
	if page == nil || len(page.Content) == 0 {
		fmt.Fprintln(out, "No documents found")
		return
	}
	t := newTable("ID", "TITLE", "STATUS", "VERSION", "OWNER", "UPDATED")
	for _, d := range page.Content {
		version := "-"
		if d.CurrentVersion != nil {
			version = strconv.Itoa(*d.CurrentVersion)
		}
		t.Row(strconv.FormatInt(d.ID, 10), d.Title, string(d.Status), version,
			d.OwnerUsername, d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, t)
	fmt.Fprintf(out, "Page %d of %d (%d documents)\n", page.PageNumber+1, max(page.TotalPages, 1), page.TotalElements)
}

func newDocsGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get ID",
		Short:   "Show a document and its versions",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			detail := viewmodel.NewDetail(a.client, viewmodel.FileSaver{Dir: a.cfg.DownloadDir}, viewmodel.WithDetailLogger(a.log))
			if err := detail.Load(cmd.Context(), id); err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail.Snapshot())
			return nil
		},
	}
}

func printDetail(out io.Writer, s viewmodel.DetailSnapshot) {
	d := s.Document
	fmt.Fprintf(out, "#%d %s [%s]\n", d.ID, d.Title, d.Status)
	if d.Description != "" {
		fmt.Fprintf(out, "  %s\n", d.Description)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(out, "  tags: %s\n", strings.Join(d.Tags, ", "))
	}
	fmt.Fprintf(out, "  owner: %s\n", d.OwnerUsername)
	if d.TenantID != "" {
		fmt.Fprintf(out, "  tenant: %s\n", d.TenantID)
	}
	fmt.Fprintf(out, "  created: %s  updated: %s\n",
		d.CreatedAt.Local().Format("2006-01-02 15:04"), d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	printVersions(out, s)
}

func printVersions(out io.Writer, s viewmodel.DetailSnapshot) {
	if s.VersionsErr != nil {
		fmt.Fprintf(out, "Versions unavailable: %s\n", gateway.Message(s.VersionsErr))
		return
	}
	if len(s.Versions) == 0 {
		fmt.Fprintln(out, "No versions uploaded")
		return
	}
	t := newTable("VERSION", "FILE", "SIZE", "TYPE", "UPLOADED BY", "UPLOADED AT")
	for _, v := range s.Versions {
		t.Row(strconv.Itoa(v.VersionNumber), v.FileName, viewmodel.FormatFileSize(v.FileSize),
			v.MimeType, v.UploadedBy, v.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, t)
}

func newDocsCreateCommand(a *app) *cobra.Command {
	var req model.DocumentCreateRequest
	var tags, status string
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a document",
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Tags = model.ParseTags(tags)
			if status != "" {
				s, ok := model.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				req.Status = s
			}
			doc, err := a.client.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created document #%d %s [%s]\n", doc.ID, doc.Title, doc.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Title (required, at most 255 characters)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&req.TenantID, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default DRAFT)")
	return cmd
}

func newDocsUpdateCommand(a *app) *cobra.Command {
	var title, description, tags, tenant string
	cmd := &cobra.Command{
		Use:     "update ID",
		Short:   "Change the metadata of a document; only given flags are sent",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req model.DocumentUpdateRequest
			f := cmd.Flags()
			if f.Changed("title") {
				req.Title = &title
			}
			if f.Changed("description") {
				req.Description = &description
			}
			if f.Changed("tags") {
				req.Tags = model.ParseTags(tags)
			}
			if f.Changed("tenant") {
				req.TenantID = &tenant
			}
			if req.Title == nil && req.Description == nil && req.Tags == nil && req.TenantID == nil {
				return errors.New("nothing to update")
			}
			doc, err := a.client.Update(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated document #%d %s\n", doc.ID, doc.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags, replaces the current ones")
	cmd.Flags().StringVar(&tenant, "tenant", "", "New tenant id")
	return cmd
}

func newDocsStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status ID STATUS",
		Short:   "Move a document to DRAFT, PUBLISHED or ARCHIVED",
		Args:    cobra.ExactArgs(2),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, ok := model.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			doc, err := a.client.UpdateStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document #%d is now %s\n", doc.ID, doc.Status)
			return nil
		},
	}
}

func newDocsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Short:   "Delete a document and all its versions (administrators only)",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !a.session.HasRole(model.RoleAdmin) {
				return errors.New("only administrators can delete documents")
			}
			if err := a.client.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted document #%d\n", id)
			return nil
		},
	}
}
