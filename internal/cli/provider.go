package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fbettag/llmdb/internal/config"
	"github.com/fbettag/llmdb/internal/provider"
)

func newProviderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage local provider manifests",
	}
	cmd.AddCommand(newProviderInitCommand())
	return cmd
}

func newProviderInitCommand() *cobra.Command {
	var (
		name    string
		baseURL string
		env     []string
		doc     string
		models  []string
	)
	cmd := &cobra.Command{
		Use:   "init PROVIDER",
		Short: "Create a provider manifest skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ProvidersDir()
			if err != nil {
				return err
			}
			m := provider.Manifest{
				Provider: provider.ManifestInfo{
					ID:      args[0],
					Name:    name,
					BaseURL: baseURL,
					Env:     env,
					Doc:     doc,
				},
			}
			for _, id := range models {
				m.Models = append(m.Models, provider.ManifestModel{ID: id})
			}
			path, err := provider.InitManifest(dir, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL, may contain {placeholders}")
	cmd.Flags().StringSliceVar(&env, "env", nil, "Environment variables holding credentials")
	cmd.Flags().StringVar(&doc, "doc", "", "Documentation URL")
	cmd.Flags().StringSliceVar(&models, "model", nil, "Model ids to seed the manifest with")
	return cmd
}
