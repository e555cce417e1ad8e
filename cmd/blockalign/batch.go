package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ic-timon/blockalign/align"
	"github.com/ic-timon/blockalign/seqio"
)

// batchJob is the YAML job file: one scoring setup applied to many
// independent pairs.
type batchJob struct {
	Profile   string `yaml:"profile"`
	Open      int    `yaml:"open"`
	Extend    int    `yaml:"extend"`
	XDrop     *int   `yaml:"xdrop"`
	Traceback bool   `yaml:"traceback"`
	Pairs     []struct {
		Query     string `yaml:"query"`
		Reference string `yaml:"reference"`
	} `yaml:"pairs"`
}

type pairResult struct {
	idx int
	res *align.Result
}

func batchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch <job-file>",
		Short: "align many pairs from a YAML job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var job batchJob
			if err := yaml.Unmarshal(raw, &job); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if job.Profile == "" {
				job.Profile = "nuc4"
			}
			if len(job.Pairs) == 0 {
				return fmt.Errorf("%s: no pairs", args[0])
			}
			prof, err := profileByName(job.Profile)
			if err != nil {
				return err
			}
			mode := align.Global()
			if job.XDrop != nil {
				mode = align.XDrop(*job.XDrop)
			}
			gaps := align.GapCost{Open: job.Open, Extend: job.Extend}

			if workers <= 0 {
				workers = runtime.GOMAXPROCS(0)
			}
			var g errgroup.Group
			g.SetLimit(workers)
			var mu sync.Mutex
			var results []pairResult
			for i, p := range job.Pairs {
				i, p := i, p
				g.Go(func() error {
					q, err := seqio.First(p.Query)
					if err != nil {
						return err
					}
					r, err := seqio.First(p.Reference)
					if err != nil {
						return err
					}
					res, err := align.Align(q.Seq, r.Seq, prof, gaps, mode,
						&align.Config{Traceback: job.Traceback})
					if err != nil {
						return fmt.Errorf("pair %d (%s vs %s): %w", i, p.Query, p.Reference, err)
					}
					mu.Lock()
					results = append(results, pairResult{idx: i, res: res})
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			sort.Slice(results, func(a, b int) bool { return results[a].idx < results[b].idx })
			for _, pr := range results {
				p := job.Pairs[pr.idx]
				if job.Traceback {
					fmt.Printf("%s\t%s\t%d\t%s\n", p.Query, p.Reference, pr.res.Score, pr.res.Ops)
				} else {
					fmt.Printf("%s\t%s\t%d\n", p.Query, p.Reference, pr.res.Score)
				}
			}
			log.Printf("aligned %d pairs with %d workers", len(results), workers)
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel alignments (0 = GOMAXPROCS)")
	return cmd
}
