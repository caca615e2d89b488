// Package docs implements the docs command.
package docs

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/exprmap/exprmap/pkg/constants"
	"github.com/exprmap/exprmap/pkg/errors"
)

// NewCommand creates the docs command.
func NewCommand() *cobra.Command {
	var man bool
	cmd := &cobra.Command{
		Use:     "docs DIR",
		GroupID: "utility",
		Short:   "Generate the command reference",
		Long:    `Docs writes one markdown page per command into DIR, or man pages with --man.`,
		Hidden:  true,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
				return errors.WrapIO("create", dir, err)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true
			if man {
				header := &doc.GenManHeader{
					Title:   "EXPRMAP",
					Section: "1",
					Source:  "exprmap",
					Manual:  "exprmap Manual",
				}
				return errors.WrapIO("write", dir, doc.GenManTree(root, header, dir))
			}
			return errors.WrapIO("write", dir, doc.GenMarkdownTree(root, dir))
		},
	}
	cmd.Flags().BoolVar(&man, "man", false, "Generate man pages instead of markdown")
	return cmd
}
