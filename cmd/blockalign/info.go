package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ic-timon/blockalign/lanes"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "print the selected lane kernel",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("arch\t%s\n", runtime.GOARCH)
			fmt.Printf("kernel\t%s\n", lanes.New(0).Desc())
			fmt.Printf("lanes\t%d\n", lanes.PreferredWidth())
		},
	}
}
