package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delegationapp/delegate/internal/dto"
	"github.com/delegationapp/delegate/internal/models"
)

func newAdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ads",
		Short: "Inspect and manage your announcements",
	}
	cmd.AddCommand(newAdsListCmd(), newAdsCountsCmd(), newAdsArchiveCmd(),
		newAdsDeleteCmd(), newAdsExportCmd(), newAdsFeedCmd())
	return cmd
}

func newAdsListCmd() *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.reconciler.Reload(cmd.Context()); err != nil {
				return err
			}
			var items []models.Announcement
			if bucket == "" {
				items = e.reconciler.Merged()
			} else {
				b := models.Bucket(bucket)
				switch b {
				case models.BucketActive, models.BucketActionsNeeded, models.BucketArchived:
				default:
					return fmt.Errorf("unknown bucket %q", bucket)
				}
				items = e.reconciler.Bucket(b)
			}
			for _, view := range dto.NewAdViews(items) {
				printAdView(view)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "filter by bucket: active, actions_needed or archived")
	return cmd
}

func newAdsCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show per-bucket totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.reconciler.Reload(cmd.Context()); err != nil {
				return err
			}
			counts := e.reconciler.Counts()
			fmt.Printf("active:         %d\n", counts[models.BucketActive])
			fmt.Printf("actions_needed: %d\n", counts[models.BucketActionsNeeded])
			fmt.Printf("archived:       %d\n", counts[models.BucketArchived])
			return nil
		},
	}
}

func newAdsArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <announcement-id>",
		Short: "Archive an announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.reconciler.Reload(cmd.Context()); err != nil {
				return err
			}
			return e.reconciler.Archive(cmd.Context(), args[0])
		},
	}
}

func newAdsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <announcement-id>",
		Short: "Delete an announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.reconciler.Reload(cmd.Context()); err != nil {
				return err
			}
			return e.reconciler.Delete(cmd.Context(), args[0])
		},
	}
}

func newAdsExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your announcements to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.reconciler.Reload(cmd.Context()); err != nil {
				return err
			}
			path, err := e.exporter.Export(format)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or pdf")
	return cmd
}

func newAdsFeedCmd() *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Browse the public feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()
			items, pagination, err := e.feed.List(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			for _, view := range dto.NewAdViews(items) {
				printAdView(view)
			}
			fmt.Printf("page %d, %d per page, %d total\n", pagination.Page, pagination.PageSize, pagination.TotalCount)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "items per page")
	return cmd
}

func printAdView(view dto.AdView) {
	marker := " "
	if view.Optimistic {
		marker = "*"
	}
	fmt.Printf("%s %s\t%s\t%s\t%s\t%s\n",
		marker, view.ID, view.Category, view.Status, view.Bucket, view.Title)
}
