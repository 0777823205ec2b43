// Package inspector implements a read-only tview/tcell browser over an
// already-bound patchfile.Applicator. Grounded on the teacher's
// debugger/tui.go (tview.Application, Pages, bordered TextViews, a
// tcell.EventKey input capture, the red/yellow error color convention),
// adapted from stepping a running CPU to browsing a static, already
// applied patch: a tree pane shows one root node (the patch name) with
// every block under it, library blocks first, and each block's
// instructions below the block; a
// detail pane renders the selected block's mask and resolved addresses;
// a status line reports any block that failed to bind or encode. The
// inspector never calls BindAll or Apply itself — it is handed the
// result of a caller's Apply and only reads from it.
package inspector

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/thumbpatch/asm"
	"github.com/lookbusy1344/thumbpatch/mask"
	"github.com/lookbusy1344/thumbpatch/patchfile"
)

// BlockError pairs a block with the error encountered trying to resolve
// its position or render its code, for blocks that failed to apply.
type BlockError struct {
	Block *patchfile.Block
	Err   error
}

// Inspector is the TUI state: the bound applicator it browses, plus any
// per-block errors collected by the caller while applying it.
type Inspector struct {
	App          *tview.Application
	Pages        *tview.Pages
	Tree         *tview.TreeView
	Detail       *tview.TextView
	Status       *tview.TextView

	applicator *patchfile.Applicator
	errors     map[*patchfile.Block]error
}

// New builds an Inspector over app (already bound, and Applied if the
// caller wants the rendered bytes reflected in the detail pane) and a set
// of per-block errors collected while applying it (nil or empty when
// every block succeeded).
func New(app *patchfile.Applicator, blockErrs []BlockError) *Inspector {
	errs := make(map[*patchfile.Block]error, len(blockErrs))
	for _, be := range blockErrs {
		errs[be.Block] = be.Err
	}

	insp := &Inspector{
		App:        tview.NewApplication(),
		applicator: app,
		errors:     errs,
	}
	insp.buildViews()
	insp.buildTree()
	insp.buildLayout()
	insp.setupKeyBindings()
	return insp
}

func (insp *Inspector) buildViews() {
	insp.Tree = tview.NewTreeView()
	insp.Tree.SetBorder(true).SetTitle(" Patches ")

	insp.Detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	insp.Detail.SetBorder(true).SetTitle(" Detail ")

	insp.Status = tview.NewTextView().SetDynamicColors(true)
	insp.Status.SetBorder(true).SetTitle(" Status ")
}

func (insp *Inspector) buildLayout() {
	main := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(insp.Tree, 0, 1, true).
		AddItem(insp.Detail, 0, 2, false)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(main, 0, 5, true).
		AddItem(insp.Status, 3, 0, false)

	insp.Pages = tview.NewPages().AddPage("main", layout, true, true)
}

// allBlocks mirrors Applicator.allBlocks: library blocks first (when the
// patch pulled in #include files), then the patch's own.
func allBlocks(p *patchfile.Patch) []*patchfile.Block {
	if p.Library() == p {
		return p.Blocks
	}
	all := make([]*patchfile.Block, 0, len(p.Blocks)+len(p.Library().Blocks))
	all = append(all, p.Library().Blocks...)
	all = append(all, p.Blocks...)
	return all
}

func (insp *Inspector) buildTree() {
	patch := insp.applicator.Patch
	root := tview.NewTreeNode(patch.Name).SetSelectable(false)

	for i, b := range allBlocks(patch) {
		label := fmt.Sprintf("block %d: %s", i, blockSummary(b))
		if insp.errors[b] != nil {
			label = "[red]" + label + "[white]"
		}
		node := tview.NewTreeNode(label).SetReference(b)
		for _, it := range b.Items {
			node.AddChild(itemNode(it))
		}
		root.AddChild(node)
	}

	insp.Tree.SetRoot(root).SetCurrentNode(root)
	insp.Tree.SetSelectedFunc(func(node *tview.TreeNode) {
		b, ok := node.GetReference().(*patchfile.Block)
		if !ok {
			node.SetExpanded(!node.IsExpanded())
			return
		}
		insp.showBlock(b)
	})
	insp.Tree.SetChangedFunc(func(node *tview.TreeNode) {
		if b, ok := node.GetReference().(*patchfile.Block); ok {
			insp.showBlock(b)
		}
	})
}

func blockSummary(b *patchfile.Block) string {
	if b.Mask.Floating() {
		return fmt.Sprintf("floating, %d bytes", b.Mask.Size())
	}
	return fmt.Sprintf("anchored at %s", b.Mask.Pos)
}

func itemNode(it asm.BlockItem) *tview.TreeNode {
	switch v := it.(type) {
	case *asm.LabelItem:
		scope := "local"
		if v.Global {
			scope = "global"
		}
		return tview.NewTreeNode(fmt.Sprintf("%s (%s label)", v.Name, scope)).SetSelectable(false)
	case *asm.ValItem:
		return tview.NewTreeNode(fmt.Sprintf("%s (val)", v.Name)).SetSelectable(false)
	case *asm.Instance:
		return tview.NewTreeNode(renderInstance(v)).SetSelectable(false)
	default:
		return tview.NewTreeNode("?").SetSelectable(false)
	}
}

func renderInstance(inst *asm.Instance) string {
	var b strings.Builder
	b.WriteString(inst.Mnemonic)
	for i, a := range inst.Args {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	return fmt.Sprintf("%08X  %s", inst.Addr(), b.String())
}

// showBlock renders b's mask hex dump (with '@' marking the anchor
// offset) and its bound instruction addresses into the detail pane, and
// surfaces any collected error in the status line.
func (insp *Inspector) showBlock(b *patchfile.Block) {
	var d strings.Builder
	fmt.Fprintf(&d, "mask: %s\n\n", describeMask(b.Mask))
	pos, err := b.GetPosition(insp.applicator.Patch.Binary, insp.applicator.Ranges)
	if err == nil {
		fmt.Fprintf(&d, "bound at offset %#x, address %#08x\n\n", pos, uint32(pos)+insp.applicator.Codebase)
	}
	for _, it := range b.Items {
		if inst, ok := it.(*asm.Instance); ok {
			fmt.Fprintf(&d, "%s\n", renderInstance(inst))
		}
	}
	insp.Detail.Clear()
	fmt.Fprint(insp.Detail, d.String())

	insp.Status.Clear()
	if bErr := insp.errors[b]; bErr != nil {
		fmt.Fprintf(insp.Status, "[red]error:[white] %v", bErr)
	} else if err != nil {
		fmt.Fprintf(insp.Status, "[yellow]warning:[white] %v", err)
	} else {
		fmt.Fprint(insp.Status, "[green]ok[white]")
	}
}

func describeMask(m *mask.Mask) string {
	if m.Floating() {
		return "floating"
	}
	var tokens []string
	offset := 0
	wroteAnchor := m.Offset < 0
	if wroteAnchor {
		tokens = append(tokens, fmt.Sprintf("?%d", -m.Offset))
	}
	for _, p := range m.Parts {
		if !wroteAnchor && offset == m.Offset {
			tokens = append(tokens, "@")
			wroteAnchor = true
		}
		if p.Literal != nil {
			tokens = append(tokens, fmt.Sprintf("% X", p.Literal))
			offset += len(p.Literal)
		} else {
			tokens = append(tokens, fmt.Sprintf("?%d", p.Skip))
			offset += p.Skip
		}
	}
	if !wroteAnchor {
		tokens = append(tokens, "@")
	}
	return strings.Join(tokens, " ")
}

func (insp *Inspector) setupKeyBindings() {
	insp.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			insp.App.Stop()
			return nil
		case tcell.KeyEscape:
			insp.App.Stop()
			return nil
		}
		return event
	})
}

// Run starts the tview event loop. It blocks until the user quits.
func (insp *Inspector) Run() error {
	return insp.App.SetRoot(insp.Pages, true).SetFocus(insp.Tree).Run()
}
