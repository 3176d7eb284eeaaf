package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"figurdle/api/internal/handle"
	"figurdle/api/internal/httpserver"
	"figurdle/api/internal/match"
	"figurdle/api/internal/puzzle"
	"figurdle/api/internal/scheduler"
)

func (a *app) serveCmd() *cobra.Command {
	var noRotate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the puzzle API and keep today's puzzle generated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateGame(); err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			var prod *puzzle.Orchestrator
			if !noRotate {
				c, err := a.engine()
				if err != nil {
					return err
				}
				prod = a.orchestrator(c, storeCorpus(db))
			}
			svc := a.service(db, producerOrNil(prod))

			h := handle.New(svc, db, handle.Options{
				AdminKey:   a.cfg.AdminKey,
				CORSOrigin: a.cfg.CORSOrigin,
			}, a.log.Named("http"))
			srv := httpserver.New(a.cfg.Addr(), h.Routes())

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return httpserver.Serve(ctx, srv, a.log.Named("http")) })
			if prod != nil {
				d := &scheduler.Daily{Rotator: svc, Interval: a.cfg.RotateInterval, Log: a.log.Named("scheduler")}
				g.Go(func() error { return d.Run(ctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&noRotate, "no-rotate", false, "do not generate puzzles; serve what is stored")
	return cmd
}

func (a *app) rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Generate today's puzzle if it does not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateGame(); err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.engine()
			if err != nil {
				return err
			}
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := a.service(db, a.orchestrator(c, storeCorpus(db)))
			res, err := svc.Rotate(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

type attemptView struct {
	Index     int    `json:"index"`
	Reason    string `json:"reason"`
	Candidate string `json:"candidate,omitempty"`
	Error     string `json:"error,omitempty"`
}

type generateView struct {
	Candidate any           `json:"candidate"`
	Verdict   any           `json:"verdict"`
	Leaks     []puzzle.Leak `json:"leaks,omitempty"`
	Attempts  []attemptView `json:"attempts"`
}

func (a *app) generateCmd() *cobra.Command {
	var avoid []string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Produce a candidate puzzle without storing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.engine()
			if err != nil {
				return err
			}
			out, err := a.orchestrator(c, puzzle.NewMemoryCorpus(avoid...)).Produce(cmd.Context())
			view := generateView{Candidate: out.Candidate, Verdict: out.Verdict, Leaks: out.Leaks}
			for _, at := range out.Attempts {
				v := attemptView{Index: at.Index, Reason: string(at.Reason), Candidate: at.Candidate}
				if at.Err != nil {
					v.Error = at.Err.Error()
				}
				view.Attempts = append(view.Attempts, v)
			}
			if err != nil {
				a.log.Warn("generation failed", zap.Error(err))
				_ = printJSON(cmd.ErrOrStderr(), view.Attempts)
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringSliceVar(&avoid, "avoid", nil, "names to treat as already used")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <guess> <answer> [alias...]",
		Short: "Match a guess against an answer and its aliases",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := match.Match(args[0], args[1:])
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.IsMatch {
				return fmt.Errorf("%q does not match", args[0])
			}
			return nil
		},
	}
}
