package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	githubadapter "github.com/automatrixhq/automatrix/internal/adapter/driven/github"
	sqliteadapter "github.com/automatrixhq/automatrix/internal/adapter/driven/sqlite"
	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/config"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// cli carries the state shared by every subcommand.
type cli struct {
	cfg    *config.Config
	dbPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "automatrixctl",
		Short:         "Administer an automatrix installation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.dbPath == "" {
				c.dbPath = cfg.DBPath
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "sqlite database path (default $AUTOMATRIX_DB_PATH)")

	root.AddCommand(c.migrateCmd(), c.catalogCmd(), c.tierCmd(), c.blogCmd())
	return root
}

// open returns a migrated database. The caller closes it.
func (c *cli) open() (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.NewDB(c.dbPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.open()
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sqliteadapter.NewDB(c.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := sqliteadapter.RollbackMigration(db.Writer); err != nil {
				return err
			}
			return printVersion(cmd, db)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sqliteadapter.NewDB(c.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func printVersion(cmd *cobra.Command, db *sqliteadapter.DB) error {
	version, dirty, err := sqliteadapter.MigrationVersion(db.Writer)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the workflow catalog",
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Import new and changed workflow files from the catalog repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.cfg.HasCatalog() {
				return errors.New("AUTOMATRIX_CATALOG_REPO is not set")
			}
			source, err := githubadapter.NewCatalogClient(c.cfg.CatalogRepo, c.cfg.CatalogPath, c.cfg.CatalogRef, c.cfg.CatalogToken)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(c.cfg.WorkflowsDir, 0o755); err != nil {
				return fmt.Errorf("create workflows dir: %w", err)
			}

			db, err := c.open()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := application.NewCatalogSyncService(source, sqliteadapter.NewWorkflowRepo(db), c.cfg.WorkflowsDir, c.cfg.CatalogInterval)
			report, err := svc.SyncOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seen %d, imported %d, unchanged %d, failed %d\n",
				report.Seen, report.Imported, report.Unchanged, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d catalog files failed to import", report.Failed)
			}
			return nil
		},
	}

	cmd.AddCommand(sync)
	return cmd
}

func (c *cli) tierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Inspect or override user tiers",
	}

	set := &cobra.Command{
		Use:   "set <user-id> <tier>",
		Short: "Set a user's tier without going through billing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := model.ParseTier(args[1])
			if err != nil {
				return err
			}

			db, err := c.open()
			if err != nil {
				return err
			}
			defer db.Close()

			access := application.NewAccessService(sqliteadapter.NewProfileRepo(db))
			if err := access.SetTier(cmd.Context(), args[0], tier); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s is now on %s\n", args[0], tier)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <user-id>",
		Short: "Print a user's tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.open()
			if err != nil {
				return err
			}
			defer db.Close()

			access := application.NewAccessService(sqliteadapter.NewProfileRepo(db))
			tier, err := access.CurrentTier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tier)
			return nil
		},
	}

	cmd.AddCommand(set, get)
	return cmd
}

func (c *cli) blogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Manage blog posts",
	}

	var (
		title string
		draft bool
	)
	publish := &cobra.Command{
		Use:   "publish <slug> <file.md>",
		Short: "Create or replace a post from a markdown file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read post body: %w", err)
			}

			db, err := c.open()
			if err != nil {
				return err
			}
			defer db.Close()

			blog := application.NewBlogService(sqliteadapter.NewBlogRepo(db))
			post, err := blog.Publish(cmd.Context(), args[0], title, string(body), !draft)
			if err != nil {
				return err
			}
			state := "published"
			if draft {
				state = "saved as draft"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q at /blog/%s\n", state, post.Title, post.Slug)
			return nil
		},
	}
	publish.Flags().StringVar(&title, "title", "", "post title (default: first markdown heading)")
	publish.Flags().BoolVar(&draft, "draft", false, "save without publishing")

	cmd.AddCommand(publish)
	return cmd
}
