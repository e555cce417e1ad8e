// Command blockalign aligns sequence pairs with the adaptive block aligner.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(0)
	root := &cobra.Command{
		Use:           "blockalign",
		Short:         "adaptive-block pairwise sequence alignment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(alignCmd(), batchCmd(), infoCmd())
	if err := root.Execute(); err != nil {
		log.Printf("blockalign: %v", err)
		os.Exit(1)
	}
}
