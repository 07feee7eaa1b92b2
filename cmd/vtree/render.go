package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/treefile"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/render"
)

type renderOptions struct {
	config render.RendererConfig
	page   bool
	title  string
}

func renderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a tree document to HTML",
		Long: `Render a tree document to HTML on standard output.

Examples:
  vtree render tree.yaml
  vtree render --pretty tree.json
  vtree render --page --title Demo tree.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.config.Pretty, "pretty", "p", false, "Indent the output")
	cmd.Flags().StringVar(&opts.config.Indent, "indent", "", "Indentation for --pretty (default two spaces)")
	cmd.Flags().BoolVarP(&opts.config.Minify, "minify", "m", false, "Minify the output")
	cmd.Flags().BoolVar(&opts.page, "page", false, "Wrap the tree in a complete HTML page")
	cmd.Flags().StringVar(&opts.title, "title", "", "Page title for --page")

	return cmd
}

func runRender(out io.Writer, path string, opts renderOptions) error {
	node, err := treefile.LoadFile(path)
	if err != nil {
		return err
	}

	root := live.Render(dom.NewDocument(), node, nil)
	r := render.NewRenderer(opts.config)
	if opts.page {
		return r.RenderPage(out, render.PageData{Body: root, Title: opts.title})
	}
	if err := r.RenderToWriter(out, root); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
