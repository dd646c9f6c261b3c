package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Print duration, dimensions and audio presence of a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := services.Media.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := struct {
			Duration float64 `json:"duration"`
			Width    int     `json:"width"`
			Height   int     `json:"height"`
			HasAudio bool    `json:"has_audio"`
		}{info.Duration, info.Width, info.Height, info.HasAudio}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
