package main

import (
	"errors"
	"fmt"
	"strings"

	"nodal/internal/client"
	"nodal/internal/models"

	"github.com/spf13/cobra"
)

// uploadAndReport uploads paths in parallel. Each stored file is printed and
// each failed file is reported on stderr. The error is set when any file failed.
func uploadAndReport(cmd *cobra.Command, s *session, paths []string) ([]models.Resource, error) {
	files, err := uploadFiles(paths)
	if err != nil {
		return nil, err
	}
	results, err := s.resources.UploadAll(cmd.Context(), files)
	failed := 0
	for i, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "failed  %s: %v\n", files[i].Filename, res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored  %s\n", resourceLine(*res.Resource))
	}
	if err != nil {
		return client.Uploaded(results), fmt.Errorf("%d of %d uploads failed", failed, len(files))
	}
	return client.Uploaded(results), nil
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		resp, err := s.auth.Register(cmd.Context(), models.RegisterRequest{
			Username: args[0],
			Email:    email,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("registering: %w", err)
		}
		if err := s.save(resp.User.Username); err != nil {
			return err
		}
		fmt.Printf("Registered and logged in as @%s\n", resp.User.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username|email>",
	Short: "Log in and remember the token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		resp, err := s.auth.Login(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("logging in: %w", err)
		}
		if err := s.save(resp.User.Username); err != nil {
			return err
		}
		fmt.Printf("Logged in as @%s\n", resp.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		s.auth.Logout()
		if err := s.save(""); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}
		user, err := s.auth.CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching profile: %w", err)
		}
		writeUser(cmd.OutOrStdout(), user)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}

		var req models.UpdateProfileRequest
		if cmd.Flags().Changed("display-name") {
			v, _ := cmd.Flags().GetString("display-name")
			req.DisplayName = &v
		}
		if cmd.Flags().Changed("avatar") {
			v, _ := cmd.Flags().GetString("avatar")
			req.AvatarURL = &v
		}
		if cmd.Flags().Changed("bio") {
			v, _ := cmd.Flags().GetString("bio")
			req.Bio = &v
		}
		if req.DisplayName == nil && req.AvatarURL == nil && req.Bio == nil {
			return errors.New("nothing to update")
		}

		user, err := s.auth.UpdateProfile(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("updating profile: %w", err)
		}
		writeUser(cmd.OutOrStdout(), user)
		return nil
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the explore timeline or one user's memos",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		username, _ := cmd.Flags().GetString("user")
		pages, _ := cmd.Flags().GetInt("pages")
		if pages < 1 {
			return errors.New("--pages must be at least 1")
		}

		for i := 0; i < pages && s.memos.HasMore(username); i++ {
			if _, err := s.memos.FetchTimeline(cmd.Context(), username, i == 0); err != nil {
				return fmt.Errorf("loading timeline: %w", err)
			}
		}

		memos := s.memos.Timeline(username)
		if len(memos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No memos")
			return nil
		}
		writeMemos(cmd.OutOrStdout(), memos)
		if s.memos.HasMore(username) {
			fmt.Fprintln(cmd.OutOrStdout(), "\n(more available, use --pages)")
		}
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <content>",
	Short: "Publish a memo or a reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}

		req := models.PublishMemoRequest{Content: strings.Join(args, " ")}
		if private, _ := cmd.Flags().GetBool("private"); private {
			v := models.VisibilityPrivate
			req.Visibility = &v
		}
		if pin, _ := cmd.Flags().GetBool("pin"); pin {
			req.IsPinned = &pin
		}
		if reply, _ := cmd.Flags().GetString("reply"); reply != "" {
			req.ParentID = &reply
		}
		if quote, _ := cmd.Flags().GetString("quote"); quote != "" {
			req.QuoteID = &quote
		}

		attach, _ := cmd.Flags().GetStringSlice("attach")
		if len(attach) > 0 {
			uploaded, err := uploadAndReport(cmd, s, attach)
			if err != nil {
				return fmt.Errorf("memo not published: %w", err)
			}
			for _, res := range uploaded {
				req.Resources = append(req.Resources, res.ID)
			}
		}

		memo, err := s.memos.Publish(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("publishing: %w", err)
		}
		writeMemo(cmd.OutOrStdout(), *memo, "")
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a memo you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}
		ctx := cmd.Context()
		id := args[0]

		current, err := lastOf(ctx, s, id)
		if err != nil {
			return err
		}

		var patch client.MemoPatch
		flags := cmd.Flags()
		if flags.Changed("content") {
			v, _ := flags.GetString("content")
			patch.Content = &v
		}
		if flags.Changed("visibility") {
			v, _ := flags.GetString("visibility")
			vis := models.Visibility(v)
			if vis != models.VisibilityPublic && vis != models.VisibilityPrivate {
				return fmt.Errorf("visibility must be public or private, got %q", v)
			}
			patch.Visibility = &vis
		}
		if pin, _ := flags.GetBool("pin"); pin {
			patch.IsPinned = &pin
		}
		if unpin, _ := flags.GetBool("unpin"); unpin {
			pinned := false
			patch.IsPinned = &pinned
		}
		if quoteID, _ := flags.GetString("quote"); quoteID != "" {
			quoted, err := lastOf(ctx, s, quoteID)
			if err != nil {
				return fmt.Errorf("loading quoted memo: %w", err)
			}
			patch.Quote = client.QuoteExist(quoted)
		}
		if noQuote, _ := flags.GetBool("no-quote"); noQuote {
			patch.Quote = client.QuoteEmpty()
		}

		clearAll, _ := flags.GetBool("clear-resources")
		attach, _ := flags.GetStringSlice("attach")
		if clearAll || len(attach) > 0 {
			resources := []models.Resource{}
			if !clearAll {
				resources = append(resources, current.Resources...)
			}
			if len(attach) > 0 {
				uploaded, err := uploadAndReport(cmd, s, attach)
				if err != nil {
					return fmt.Errorf("memo not changed: %w", err)
				}
				resources = append(resources, uploaded...)
			}
			patch.Resources = &resources
		}

		if err := s.memos.Patch(ctx, id, patch); err != nil {
			return fmt.Errorf("editing memo: %w", err)
		}
		updated, err := lastOf(ctx, s, id)
		if err != nil {
			return err
		}
		writeMemo(cmd.OutOrStdout(), updated, "")
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a memo and its replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(fmt.Sprintf("Delete memo %s and all replies?", args[0])) {
			fmt.Println("Aborted")
			return nil
		}
		if err := s.memos.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting memo: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a memo with its replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		memo, err := lastOf(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		writeMemo(cmd.OutOrStdout(), memo, "")
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search your memos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}
		memos, err := s.memos.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		if len(memos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches")
			return nil
		}
		writeMemos(cmd.OutOrStdout(), memos)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload files without attaching them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}
		_, err = uploadAndReport(cmd, s, args)
		return err
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources [id]",
	Short: "List your uploads or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.requireLogin(); err != nil {
			return err
		}
		if len(args) == 1 {
			res, err := s.resources.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching resource: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resourceLine(*res))
			return nil
		}
		list, err := s.resources.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing resources: %w", err)
		}
		for _, res := range list {
			fmt.Fprintln(cmd.OutOrStdout(), resourceLine(res))
		}
		return nil
	},
}
