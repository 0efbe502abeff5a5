package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/internal/service"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Author announcement drafts",
	}
	cmd.AddCommand(newDraftNewCmd(), newDraftSetCmd(), newDraftShowCmd(), newDraftListCmd(),
		newDraftValidateCmd(), newDraftAttachCmd(), newDraftDiscardCmd(), newDraftSubmitCmd())
	return cmd
}

func newDraftNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <delivery|help>",
		Short: "Start a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			draft, err := e.drafts.New(cmd.Context(), service.NewDraftRequest{
				ID:       uuid.NewString(),
				Category: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Println(draft.ID)
			return nil
		},
	}
}

func newDraftSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <draft-id> <field> <value>",
		Short: "Set one draft field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if _, err := e.drafts.SetField(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			return nil
		},
	}
}

func newDraftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Print a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			draft, err := e.drafts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printDraft(draft)
			return nil
		},
	}
}

func newDraftListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			drafts, err := e.drafts.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, draft := range drafts {
				fmt.Printf("%s\t%s\t%s\n", draft.ID, draft.Category, draft.Title)
			}
			return nil
		},
	}
}

func newDraftValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <draft-id> [step]",
		Short: "Validate a draft, or one step of it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			draft, err := e.drafts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if err := e.drafts.ValidateStep(draft, args[1]); err != nil {
					return err
				}
			} else if err := e.drafts.ValidateAll(draft); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func newDraftAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <draft-id> <photo-path>",
		Short: "Attach a photo to a draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			_, err = e.drafts.Attach(cmd.Context(), args[0], models.Attachment{
				Name: filepath.Base(args[1]),
				Data: data,
			})
			return err
		},
	}
}

func newDraftDiscardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <draft-id>",
		Short: "Discard a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			return e.drafts.Discard(cmd.Context(), args[0])
		},
	}
}

func printDraft(draft *models.Draft) {
	fmt.Printf("id:       %s\n", draft.ID)
	fmt.Printf("category: %s\n", draft.Category)
	fmt.Printf("title:    %s\n", draft.Title)
	fmt.Printf("budget:   %s\n", draft.Budget)
	for field, address := range draft.Addresses() {
		fmt.Printf("%s: %s\n", field, address)
	}
	if !draft.StartAt.IsZero() {
		fmt.Printf("start_at: %s\n", draft.StartAt)
	}
	if draft.EndAt != nil {
		fmt.Printf("end_at:   %s\n", draft.EndAt)
	}
	fmt.Printf("photos:   %d\n", len(draft.Attachments))
}

func newDraftSubmitCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "submit <draft-id>",
		Short: "Submit a draft for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			payload, attachments, err := e.drafts.Prepare(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			placeholder, err := e.pipeline.Submit(payload, attachments)
			if err != nil {
				return err
			}
			if err := e.drafts.Discard(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("submitted as %s\n", placeholder.ID)

			// One-shot process: give the pipeline a window to confirm
			// before the engine shuts down.
			deadline := time.After(wait)
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-deadline:
					fmt.Println("still pending, check `delegate ads list` later")
					return nil
				case <-ticker.C:
					if !stillPlaceholder(e.reconciler.Merged(), placeholder.ID) {
						if msg := e.reconciler.Toast(); msg != "" {
							fmt.Println(msg)
						}
						if msg := e.reconciler.LastError(); msg != "" {
							return fmt.Errorf("submission failed: %s", msg)
						}
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 15*time.Second, "how long to wait for the server to confirm")
	return cmd
}

func stillPlaceholder(items []models.Announcement, localID string) bool {
	for _, item := range items {
		if item.ID == localID {
			return true
		}
	}
	return false
}
