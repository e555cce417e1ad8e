package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ic-timon/blockalign/align"
	"github.com/ic-timon/blockalign/seqio"
)

type alignOpts struct {
	profile  string
	open     int
	extend   int
	xdrop    int
	cigar    bool
	stats    bool
	useMmap  bool
	minBlock int
	maxBlock int
}

func profileByName(name string) (*align.Profile, error) {
	switch name {
	case "nuc4":
		return align.Nuc4(), nil
	case "blosum62":
		return align.Blosum62(), nil
	}
	return nil, fmt.Errorf("unknown profile %q (want nuc4 or blosum62)", name)
}

func (o *alignOpts) mode() align.Mode {
	if o.xdrop >= 0 {
		return align.XDrop(o.xdrop)
	}
	return align.Global()
}

func alignCmd() *cobra.Command {
	opts := &alignOpts{}
	cmd := &cobra.Command{
		Use:   "align <query-file> <reference-file>",
		Short: "align one query against one reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := seqio.First(args[0])
			if err != nil {
				return err
			}
			refSeq, closeRef, err := loadReference(args[1], opts.useMmap)
			if err != nil {
				return err
			}
			defer closeRef()

			prof, err := profileByName(opts.profile)
			if err != nil {
				return err
			}
			cfg := &align.Config{
				MinBlockSize: opts.minBlock,
				MaxBlockSize: opts.maxBlock,
				Traceback:    opts.cigar,
			}
			var stats align.StepStats
			if opts.stats {
				cfg.Observer = &stats
			}
			res, err := align.Align(query.Seq, refSeq, prof,
				align.GapCost{Open: opts.open, Extend: opts.extend}, opts.mode(), cfg)
			if err != nil {
				return err
			}

			fmt.Printf("score\t%d\n", res.Score)
			fmt.Printf("ends\t%d\t%d\n", res.QueryEnd, res.RefEnd)
			if opts.cigar {
				fmt.Printf("cigar\t%s\n", res.Ops)
			}
			if opts.stats {
				log.Printf("stats: %s", stats.String())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.profile, "profile", "nuc4", "scoring profile: nuc4 or blosum62")
	f.IntVar(&opts.open, "open", 5, "gap open penalty (cost of a length-1 gap)")
	f.IntVar(&opts.extend, "extend", 1, "gap extend penalty per further symbol")
	f.IntVar(&opts.xdrop, "xdrop", -1, "X-drop threshold; negative means global alignment")
	f.BoolVar(&opts.cigar, "cigar", false, "emit the alignment path")
	f.BoolVar(&opts.stats, "stats", false, "log controller statistics")
	f.BoolVar(&opts.useMmap, "mmap", false, "memory-map the reference file")
	f.IntVar(&opts.minBlock, "min-block", 0, "minimum block size (0 = default)")
	f.IntVar(&opts.maxBlock, "max-block", 0, "maximum block size (0 = default)")
	return cmd
}

// loadReference reads the reference either through the page cache (mmap,
// good for a large reference reused across runs) or as a plain load.
func loadReference(path string, useMmap bool) ([]byte, func(), error) {
	if !useMmap {
		rec, err := seqio.First(path)
		if err != nil {
			return nil, nil, err
		}
		return rec.Seq, func() {}, nil
	}
	m, err := seqio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	seq, err := m.Seq()
	if err != nil {
		recs, rerr := m.Records()
		if rerr != nil {
			m.Close()
			return nil, nil, err
		}
		m.Close()
		return recs[0].Seq, func() {}, nil
	}
	return seq, func() { m.Close() }, nil
}
