package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChanHyuk-YOO/Plannie/internal/api"
	"github.com/ChanHyuk-YOO/Plannie/internal/auth"
	"github.com/ChanHyuk-YOO/Plannie/internal/chat"
	"github.com/ChanHyuk-YOO/Plannie/internal/config"
	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
	"github.com/ChanHyuk-YOO/Plannie/internal/llm"
	"github.com/ChanHyuk-YOO/Plannie/internal/realtime"
	"github.com/ChanHyuk-YOO/Plannie/internal/reminder"
	"github.com/ChanHyuk-YOO/Plannie/internal/store"
)

var (
	cfg   *config.Config
	email string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plannie",
		Short: "Study planner backend with a conversational assistant",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&email, "email", "", "owner email for direct commands")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getStore() (*store.Store, error) {
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.DBPath)
}

func requireEmail() error {
	if email == "" {
		return fmt.Errorf("--email is required")
	}
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the planner API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireServer(); err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}

			model, err := llm.New(cfg.OpenAIKey, cfg.OpenAIModel)
			if err != nil {
				return err
			}

			hub := realtime.NewHub()
			normalizer := chat.NewNormalizer(cfg.Locale)
			pipeline := chat.NewPipeline(model, normalizer, s)
			verifier := auth.NewVerifier(cfg.JWTSecret)

			sweeper := reminder.New(s, hub, cfg.Locale)
			if err := sweeper.Start(); err != nil {
				return err
			}
			defer sweeper.Stop()

			server := api.New(s, pipeline, verifier, hub, cfg.Addr)
			return server.Run()
		},
	}
}

func addCmd() *cobra.Command {
	var date, start, end string

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a planner entry directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEmail(); err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entry, err := s.Insert(&domain.PlannerEntry{
				OwnerEmail: email,
				StartDay:   date,
				Title:      strings.Join(args, " "),
				StartTime:  start,
				EndTime:    end,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added entry %s: %s %s ~ %s %s\n",
				entry.ID[:8], entry.StartDay, entry.StartTime, entry.EndTime, entry.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "09:00", "start time (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "10:00", "end time (HH:MM)")
	return cmd
}

func listCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEmail(); err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.FindByOwnerAndDate(email, date)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No entries for", date)
				return nil
			}

			for i, e := range entries {
				done := " "
				if e.CheckBox {
					done = "v"
				}
				fmt.Printf("%d. [%s] %s ~ %s  %s\n", i+1, done, e.StartTime, e.EndTime, e.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "date to list (YYYY-MM-DD)")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one assistant message through the pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEmail(); err != nil {
				return err
			}

			model, err := llm.New(cfg.OpenAIKey, cfg.OpenAIModel)
			if err != nil {
				return err
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			pipeline := chat.NewPipeline(model, chat.NewNormalizer(cfg.Locale), s)
			outcome, err := pipeline.Handle(email, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(outcome.FinalResponse)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEmail(); err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET environment variable not set")
			}

			token, err := auth.NewVerifier(cfg.JWTSecret).IssueToken(email, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
