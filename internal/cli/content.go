package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/services"
)

const defaultArticlePageSize = 10

func (a *app) newArticlesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"article"},
		Short:   "List, read and manage news articles",
	}
	cmd.AddCommand(
		a.newArticlesListCommand(),
		a.newArticlesGetCommand(),
		a.newArticlesCreateCommand(),
		a.newArticlesDeleteCommand(),
	)
	return cmd
}

func (a *app) newArticlesListCommand() *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles, drafts included when signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.services.Articles.Page(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			if len(result.Items) == 0 {
				fmt.Fprintln(a.opts.Out, "No articles.")
				return nil
			}

			rows := make([][]string, 0, len(result.Items))
			for _, article := range result.Items {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(article.ID), 10),
					truncate(article.Title, 48),
					article.Slug,
					yesNo(article.IsPublished),
					article.Author.Username,
					formatDate(article.PublishedAt()),
				})
			}
			printTable(a.opts.Out, []string{"ID", "Title", "Slug", "Published", "Author", "Created"}, rows)
			fmt.Fprintf(a.opts.Out, "Page %d of %d (%d articles)\n", result.Meta.Page, max(result.Meta.TotalPages, 1), result.Meta.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", defaultArticlePageSize, "articles per page")
	return cmd
}

func (a *app) newArticlesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			article, err := a.services.Articles.BySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if article == nil {
				return fmt.Errorf("no article with slug %q", args[0])
			}

			title := lipgloss.NewStyle().Bold(true).Render(article.Title)
			meta := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(
				fmt.Sprintf("#%d %s by %s, %s", article.ID, article.Slug, article.Author.Username, formatDate(article.PublishedAt())),
			)
			body := lipgloss.NewStyle().Width(80).Render(services.Excerpt(article.Content, 0))

			fmt.Fprintln(a.opts.Out, lipgloss.JoinVertical(lipgloss.Left, title, meta, "", body))
			return nil
		},
	}
}

func (a *app) newArticlesCreateCommand() *cobra.Command {
	var in services.ArticleInput
	var categoryID uint

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an article",
		Example: `  portalctl articles create --title "Wisuda Tahfidz" \
    --content "<p>Alhamdulillah, wisuda tahfidz angkatan ketujuh...</p>" --publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			if categoryID > 0 {
				in.CategoryID = &categoryID
			}

			article, err := a.services.Articles.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.success(fmt.Sprintf("Created article #%d (%s)", article.ID, article.Slug))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "article title")
	cmd.Flags().StringVar(&in.Content, "content", "", "article content (html)")
	cmd.Flags().StringVar(&in.ThumbnailURL, "thumbnail", "", "thumbnail image url")
	cmd.Flags().BoolVar(&in.IsPublished, "publish", false, "publish immediately instead of saving a draft")
	cmd.Flags().UintVar(&categoryID, "category", 0, "category id")
	return cmd
}

func (a *app) newArticlesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.services.Articles.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.success(fmt.Sprintf("Deleted article #%d", id))
			return nil
		},
	}
}

func (a *app) newMessagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"inbox"},
		Short:   "Read the contact form inbox",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List received messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			messages, err := a.services.Contact.ListMessages(cmd.Context())
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Fprintln(a.opts.Out, "No messages.")
				return nil
			}

			rows := make([][]string, 0, len(messages))
			for _, m := range messages {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(m.ID), 10),
					fmt.Sprintf("%s <%s>", m.Name, m.Email),
					truncate(m.Subject, 40),
					yesNo(m.IsRead),
					formatDate(m.CreatedAt),
				})
			}
			printTable(a.opts.Out, []string{"ID", "From", "Subject", "Read", "Received"}, rows)
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.services.Contact.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			a.success(fmt.Sprintf("Message #%d marked as read", id))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.services.Contact.DeleteMessage(cmd.Context(), id); err != nil {
				return err
			}
			a.success(fmt.Sprintf("Deleted message #%d", id))
			return nil
		},
	}

	cmd.AddCommand(list, read, del)
	return cmd
}

func (a *app) newRegistrantsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registrants",
		Aliases: []string{"psb"},
		Short:   "Review new santri registrations",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registrants, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			status = strings.ToUpper(strings.TrimSpace(status))
			if status != "" && !portal.ValidRegistrantStatuses[status] {
				return fmt.Errorf("invalid status %q: expected PENDING, VERIFIED, ACCEPTED or REJECTED", status)
			}

			registrants, err := a.services.Admission.ListRegistrants(cmd.Context(), status)
			if err != nil {
				return err
			}
			if len(registrants) == 0 {
				fmt.Fprintln(a.opts.Out, "No registrants.")
				return nil
			}

			rows := make([][]string, 0, len(registrants))
			for _, r := range registrants {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(r.ID), 10),
					r.FullName,
					r.NIK,
					r.Gender,
					r.ParentName,
					r.ParentPhone,
					r.Status,
					formatDate(r.CreatedAt),
				})
			}
			printTable(a.opts.Out, []string{"ID", "Name", "NIK", "Gender", "Parent", "Phone", "Status", "Registered"}, rows)
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "PENDING, VERIFIED, ACCEPTED or REJECTED")

	setStatus := &cobra.Command{
		Use:     "status <id> <status>",
		Short:   "Change the status of a registrant",
		Example: "  portalctl registrants status 12 ACCEPTED",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			newStatus := strings.ToUpper(args[1])
			if err := a.services.Admission.UpdateStatus(cmd.Context(), id, newStatus); err != nil {
				return err
			}
			a.success(fmt.Sprintf("Registrant #%d is now %s", id, newStatus))
			return nil
		},
	}

	cmd.AddCommand(list, setStatus)
	return cmd
}
