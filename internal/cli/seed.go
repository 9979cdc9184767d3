package cli

import (
	"fmt"

	"folio/internal/database"
	"folio/internal/seed"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	users    int
	posts    int
	clean    bool
	seed     int64
	fixtures string
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	so := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo users and posts",
		Long: `Generate fake users and posts, or load a YAML fixtures file with --fixtures.
Generated users share the password "` + seed.DefaultPassword + `".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts, so)
		},
	}
	cmd.Flags().IntVar(&so.users, "users", 10, "number of users to create")
	cmd.Flags().IntVar(&so.posts, "posts", 50, "number of posts to create")
	cmd.Flags().BoolVar(&so.clean, "clean", false, "delete all posts and users first")
	cmd.Flags().Int64Var(&so.seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVarP(&so.fixtures, "fixtures", "f", "", "YAML fixtures file to load instead of generated data")
	return cmd
}

func runSeed(cmd *cobra.Command, opts *RootOptions, so *seedOptions) error {
	ctx := cmd.Context()
	rt, err := opts.runtime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	if err := database.ApplySchema(ctx, rt.DB, rt.Config); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	s := seed.NewSeeder(rt.DB)
	if so.fixtures != "" {
		fx, err := seed.LoadFixturesFile(so.fixtures)
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "load fixtures", Err: err}
		}
		if so.clean {
			if err := s.Clean(ctx); err != nil {
				return err
			}
		}
		if err := seed.ApplyFixtures(ctx, rt.DB, fx, 0); err != nil {
			return fmt.Errorf("apply fixtures: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d users and %d posts from %s\n", len(fx.Users), len(fx.Posts), so.fixtures)
		return nil
	}

	res, err := s.Run(ctx, seed.Options{
		Users: so.users,
		Posts: so.posts,
		Clean: so.clean,
		Seed:  so.seed,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d users and %d posts\n", res.Users, res.Posts)
	return nil
}
