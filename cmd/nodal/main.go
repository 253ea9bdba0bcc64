package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"nodal/internal/client"
	"nodal/internal/models"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// session is one CLI invocation's view of the server. The cache lives only
// for the invocation.
type session struct {
	path      string
	cfg       *cliConfig
	api       *client.API
	auth      *client.AuthRepository
	memos     *client.MemoRepository
	resources *client.ResourceRepository
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	cfg, err := readConfig(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.Server = server
	}

	api := client.NewAPI(cfg.Server, client.WithToken(cfg.Token))
	cache := client.NewCache()
	return &session{
		path:      path,
		cfg:       cfg,
		api:       api,
		auth:      client.NewAuthRepository(api),
		memos:     client.NewMemoRepository(api, cache),
		resources: client.NewResourceRepository(api),
	}, nil
}

// save persists the current token and server.
func (s *session) save(username string) error {
	s.cfg.Token = s.api.Token()
	s.cfg.Username = username
	if err := writeConfig(s.path, s.cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func (s *session) requireLogin() error {
	if !s.auth.LoggedIn() {
		return fmt.Errorf("not logged in, run `nodal login` first")
	}
	return nil
}

// readPassword reads without echo from a terminal and a plain line otherwise.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	answer, err := readLine(os.Stdin)
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// lastOf drains a detail stream and keeps the freshest memo.
func lastOf(ctx context.Context, s *session, id string) (models.Memo, error) {
	var (
		memo  models.Memo
		found bool
	)
	for m, err := range s.memos.Detail(ctx, id) {
		if err != nil {
			return models.Memo{}, err
		}
		memo, found = m, true
	}
	if !found {
		return models.Memo{}, fmt.Errorf("memo %s not found", id)
	}
	return memo, nil
}

var rootCmd = &cobra.Command{
	Use:          "nodal",
	Short:        "Command-line client for a Nodal server",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "server base URL (overrides the config file)")

	registerCmd.Flags().String("email", "", "email address")
	_ = registerCmd.MarkFlagRequired("email")

	timelineCmd.Flags().String("user", "", "show one user's timeline instead of explore")
	timelineCmd.Flags().Int("pages", 1, "number of pages to load")

	publishCmd.Flags().Bool("private", false, "only visible to you")
	publishCmd.Flags().Bool("pin", false, "pin the memo")
	publishCmd.Flags().String("reply", "", "id of the memo to reply to")
	publishCmd.Flags().String("quote", "", "id of the memo to quote")
	publishCmd.Flags().StringSlice("attach", nil, "files to upload and attach")

	editCmd.Flags().String("content", "", "new content")
	editCmd.Flags().String("visibility", "", "public or private")
	editCmd.Flags().Bool("pin", false, "pin the memo")
	editCmd.Flags().Bool("unpin", false, "unpin the memo")
	editCmd.Flags().String("quote", "", "id of the memo to quote")
	editCmd.Flags().Bool("no-quote", false, "remove the quote")
	editCmd.Flags().StringSlice("attach", nil, "files to upload and add")
	editCmd.Flags().Bool("clear-resources", false, "detach all resources")
	editCmd.MarkFlagsMutuallyExclusive("pin", "unpin")
	editCmd.MarkFlagsMutuallyExclusive("quote", "no-quote")

	deleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	profileCmd.Flags().String("display-name", "", "display name")
	profileCmd.Flags().String("avatar", "", "avatar URL")
	profileCmd.Flags().String("bio", "", "bio")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(resourcesCmd)
}
