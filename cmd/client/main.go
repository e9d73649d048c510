package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Default server base URL; override with PHISHAWARE_SERVER or --server.
var serverBaseURL = "http://localhost:8080"

var rootCmd = &cobra.Command{
	Use:           "phishaware",
	Short:         "Command line client for the phishaware JSON API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if env := os.Getenv("PHISHAWARE_SERVER"); env != "" {
		serverBaseURL = env
	}
	rootCmd.PersistentFlags().StringVar(&serverBaseURL, "server", serverBaseURL, "server base URL")
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd(), detectCmd(), askCmd(), quizCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func registerCmd() *cobra.Command {
	var email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm == "" {
				confirm = password
			}
			c, err := newClient(serverBaseURL)
			if err != nil {
				return err
			}
			var out struct {
				User struct {
					Email string `json:"email"`
				} `json:"user"`
			}
			if err := c.postJSON(cmd.Context(), "/api/register", map[string]string{
				"email":            email,
				"password":         password,
				"confirm_password": confirm,
			}, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Please log in.\n", out.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session cookie for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(serverBaseURL)
			if err != nil {
				return err
			}
			if err := c.postJSON(cmd.Context(), "/api/login", map[string]string{
				"email":    email,
				"password": password,
			}, nil); err != nil {
				return err
			}
			if err := c.saveCookies(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", strings.ToLower(strings.TrimSpace(email)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(serverBaseURL)
			if err != nil {
				return err
			}
			if err := c.postJSON(cmd.Context(), "/api/logout", struct{}{}, nil); err != nil {
				return err
			}
			if err := c.clearCookies(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(serverBaseURL)
			if err != nil {
				return err
			}
			var out struct {
				Authenticated bool            `json:"authenticated"`
				Email         string          `json:"email"`
				UI            map[string]bool `json:"ui"`
			}
			if err := c.getJSON(cmd.Context(), "/api/session", &out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !out.Authenticated {
				fmt.Fprintln(w, "Not signed in")
				return nil
			}
			fmt.Fprintf(w, "Signed in as %s\n", out.Email)
			for k, v := range out.UI {
				fmt.Fprintf(w, "  %s: %t\n", k, v)
			}
			return nil
		},
	}
}

func detectCmd() *cobra.Command {
	var file, text string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Submit a screenshot or message text for phishing detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && text == "" {
				return fmt.Errorf("one of --file or --text is required")
			}
			c, err := newClient(serverBaseURL)
			if err != nil {
				return err
			}
			var out struct {
				Kind        string `json:"kind"`
				Source      string `json:"source"`
				Predictions []struct {
					Label string  `json:"label"`
					Score float64 `json:"score"`
				} `json:"predictions"`
			}
			if file != "" {
				err = c.postFile(cmd.Context(), "/api/detect", "file", file, &out)
			} else {
				err = c.postJSON(cmd.Context(), "/api/detect", map[string]string{"text": text}, &out)
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", out.Source, out.Kind)
			for _, p := range out.Predictions {
				fmt.Fprintf(w, "  %-24s %5.1f%%\n", p.Label, p.Score*100)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to upload")
	cmd.Flags().StringVarP(&text, "text", "t", "", "message text to classify")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the security assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(serverBaseURL)
			if err != nil {
				return err
			}
			var out struct {
				Paragraphs []string `json:"paragraphs"`
			}
			if err := c.postJSON(cmd.Context(), "/api/assistant", map[string]string{
				"prompt": strings.Join(args, " "),
			}, &out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, p := range out.Paragraphs {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, p)
			}
			return nil
		},
	}
}

type quizView struct {
	Index    int  `json:"index"`
	Total    int  `json:"total"`
	Selected int  `json:"selected"`
	Finished bool `json:"finished"`
	Correct  int  `json:"correct"`
	Question *struct {
		ID      int      `json:"id"`
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
	} `json:"question"`
}

func quizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Work through the phishing quiz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return quizCall(cmd, "GET", "/api/quiz", nil)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "answer <option>",
			Short: "Select an option (zero-based) for the current question",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("option must be a number: %w", err)
				}
				return quizCall(cmd, "POST", "/api/quiz/answer", map[string]int{"option": n})
			},
		},
		&cobra.Command{
			Use:   "next",
			Short: "Move to the next question or finish",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return quizCall(cmd, "POST", "/api/quiz/next", struct{}{})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Start the quiz over",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return quizCall(cmd, "POST", "/api/quiz/reset", struct{}{})
			},
		},
	)
	return cmd
}

func quizCall(cmd *cobra.Command, method, path string, body any) error {
	c, err := newClient(serverBaseURL)
	if err != nil {
		return err
	}
	var v quizView
	if method == "GET" {
		err = c.getJSON(cmd.Context(), path, &v)
	} else {
		err = c.postJSON(cmd.Context(), path, body, &v)
	}
	if err != nil {
		return err
	}
	printQuiz(cmd, v)
	return nil
}

func printQuiz(cmd *cobra.Command, v quizView) {
	w := cmd.OutOrStdout()
	if v.Finished || v.Question == nil {
		fmt.Fprintf(w, "You got %d out of %d correct!\n", v.Correct, v.Total)
		return
	}
	fmt.Fprintf(w, "Question %d of %d: %s\n", v.Index+1, v.Total, v.Question.Prompt)
	for i, opt := range v.Question.Options {
		mark := " "
		if i == v.Selected {
			mark = "*"
		}
		fmt.Fprintf(w, " %s %d) %s\n", mark, i, opt)
	}
}
