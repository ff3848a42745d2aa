package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"concretestrength/ml"
)

func newModelCmd(a *app) *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Show the configured model artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := a.provider()
			if _, err := provider.Model(); err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			info, _ := provider.Info()
			return printInfo(cmd.OutOrStdout(), info)
		},
	}

	packCmd := &cobra.Command{
		Use:   "pack [output]",
		Short: "Re-encode the model artifact, compressed by output extension",
		Long: `Reads the configured model artifact, checks that it loads, and writes it
to output. The extension picks the encoding: .zst, .lz4, .gz, or plain JSON.

Example:
  strength model pack models/modelo_concreto.json.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, _, err := ml.ReadArtifact(a.cfg.Model.Path)
			if err != nil {
				return err
			}
			if _, err := ml.CheckArtifact(a.cfg.Model.Type, artifact); err != nil {
				return err
			}
			info, err := ml.WriteArtifact(args[0], artifact)
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), info)
		},
	}

	modelCmd.AddCommand(packCmd)
	return modelCmd
}

func printInfo(w io.Writer, info ml.ArtifactInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "type\t%s\n", info.Type)
	fmt.Fprintf(tw, "path\t%s\n", info.Path)
	fmt.Fprintf(tw, "compression\t%s\n", info.Compression)
	fmt.Fprintf(tw, "size\t%d\n", info.Size)
	fmt.Fprintf(tw, "fingerprint\t%s\n", info.Fingerprint)
	fmt.Fprintf(tw, "features\t%s\n", strings.Join(info.FeatureNames, ", "))
	if info.Target != "" {
		fmt.Fprintf(tw, "target\t%s\n", info.Target)
	}
	keys := make([]string, 0, len(info.Metadata))
	for key := range info.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", key, info.Metadata[key])
	}
	return tw.Flush()
}
