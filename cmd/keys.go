package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show configured SerpAPI key slots",
	RunE: func(_ *cobra.Command, _ []string) error {
		pool := loadPool(cfg)

		if pool.Size() == 0 {
			return eris.New("keys: no SerpAPI key configured (set SERPAPI_KEY or the secrets file)")
		}

		for _, slot := range pool.Snapshot() {
			marker := " "
			if slot.Active {
				marker = "*"
			}
			state := ""
			if slot.Exhausted {
				state = " (exhausted)"
			}
			fmt.Printf("%s slot %2d  %s  %s%s\n", marker, slot.Slot, slot.Key, slot.Source, state)
		}
		fmt.Printf("%d key(s) configured\n", pool.Size())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
