package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/internal/treefile"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func diffCmd() *cobra.Command {
	var (
		apply bool
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Print the patches between two tree documents",
		Long: `Print the patches that turn the first tree into the second.

Each line shows the pre-order index of the patched node in the old
tree, the patch kind and its payload. Reorder and thunk patches list
their nested patches indented below them.

With --apply the patches are applied to a live rendering of the old
tree and the result is checked against a fresh rendering of the new
one.

Examples:
  vtree diff before.yaml after.yaml
  vtree diff --apply list1.json list2.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1], apply, stats)
		},
	}

	cmd.Flags().BoolVarP(&apply, "apply", "a", false, "Check that applying the patches reproduces the new tree")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print patch counts by kind")

	return cmd
}

func runDiff(out io.Writer, oldPath, newPath string, apply, stats bool) error {
	loader := treefile.NewLoader()
	prev, err := loader.LoadFile(oldPath)
	if err != nil {
		return err
	}
	next, err := loader.LoadFile(newPath)
	if err != nil {
		return err
	}

	patches := vdom.Diff(prev, next)
	if len(patches) == 0 {
		fmt.Fprintln(out, "no changes")
	}
	printPatches(out, patches, 0)

	if stats {
		printStats(out, patches)
	}
	if apply {
		if err := checkRoundTrip(prev, next, patches); err != nil {
			return err
		}
		success(out, "round trip ok (%d patches)", vdom.Count(patches))
	}
	return nil
}

func printPatches(w io.Writer, patches []vdom.Patch, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, p := range patches {
		fmt.Fprintf(w, "%s%4d  %-10s%s\n", indent, p.Index, p.Kind, describe(p))
		switch p.Kind {
		case vdom.PatchThunk:
			printPatches(w, p.Patches, depth+1)
		case vdom.PatchReorder:
			printPatches(w, p.Reorder.Patches, depth+1)
			for _, in := range p.Reorder.Inserts {
				fmt.Fprintf(w, "%s      insert  %q at %d (%s)\n", indent, in.Entry.Key, in.Index, in.Entry.State)
			}
			for _, in := range p.Reorder.EndInserts {
				fmt.Fprintf(w, "%s      append  %q (%s)\n", indent, in.Entry.Key, in.Entry.State)
			}
		case vdom.PatchRemove:
			if p.Move != nil {
				printPatches(w, p.Move.Patches, depth+1)
			}
		}
	}
}

func describe(p vdom.Patch) string {
	switch p.Kind {
	case vdom.PatchRedraw:
		return " " + describeNode(p.Node)
	case vdom.PatchText:
		return fmt.Sprintf(" %q", p.Text)
	case vdom.PatchRetag:
		names := make([]string, len(p.Taggers))
		for i, t := range p.Taggers {
			names[i] = t.Name()
		}
		return " " + strings.Join(names, ".")
	case vdom.PatchFacts:
		return describeFacts(p.Facts)
	case vdom.PatchRemoveLast:
		return fmt.Sprintf(" from %d, %d children", p.Start, p.Count)
	case vdom.PatchAppend:
		return fmt.Sprintf(" from %d, %d children", p.Start, len(p.Children)-p.Start)
	case vdom.PatchReorder:
		return fmt.Sprintf(" %d local, %d inserts, %d end inserts",
			len(p.Reorder.Patches), len(p.Reorder.Inserts), len(p.Reorder.EndInserts))
	case vdom.PatchRemove:
		if p.Move != nil {
			return fmt.Sprintf(" move %q", p.Move.Entry.Key)
		}
		return ""
	default:
		return ""
	}
}

func describeNode(n *vdom.VNode) string {
	switch n.Kind {
	case vdom.KindText:
		return fmt.Sprintf("text %q", n.Text)
	case vdom.KindElement, vdom.KindKeyed:
		return "<" + n.Tag + ">"
	case vdom.KindTagged:
		return "map " + n.Tagger.Name()
	default:
		return strings.ToLower(n.Kind.String())
	}
}

func describeFacts(d *vdom.FactsDiff) string {
	var parts []string
	add := func(name string, n int) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	add("events", len(d.Events))
	add("styles", len(d.Styles))
	add("props", len(d.Props)+len(d.RemovedProps))
	add("attrs", len(d.Attrs)+len(d.AttrsNS))
	return " " + strings.Join(parts, " ")
}

func printStats(w io.Writer, patches []vdom.Patch) {
	counts := vdom.CountByKind(patches)
	kinds := make([]vdom.PatchKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Fprintln(w)
	for _, k := range kinds {
		info(w, "%-10s %d", k, counts[k])
	}
	info(w, "%-10s %d", "total", vdom.Count(patches))
}

// checkRoundTrip applies patches to a live rendering of prev and compares
// the markup with a rendering of next. It also checks that vdom.Patched
// rebuilds next from prev.
func checkRoundTrip(prev, next *vdom.VNode, patches []vdom.Patch) error {
	r := render.NewRenderer(render.RendererConfig{})

	root := live.Render(dom.NewDocument(), prev, nil)
	root = live.Apply(root, prev, patches, nil)
	got, err := r.RenderToString(root)
	if err != nil {
		return err
	}
	want, err := r.RenderToString(live.Render(dom.NewDocument(), next, nil))
	if err != nil {
		return err
	}
	if got != want {
		return errors.New("E502").WithDetail(fmt.Sprintf("patched:  %s\nexpected: %s", got, want))
	}

	patched, err := vdom.Patched(prev, patches)
	if err != nil {
		return err
	}
	if rest := vdom.Diff(patched, next); len(rest) != 0 {
		return errors.New("E502").WithDetail(fmt.Sprintf("rebuilt tree is %d patches away from the new tree", len(rest)))
	}
	return nil
}
