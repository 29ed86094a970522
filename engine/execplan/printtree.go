package execplan

import (
	"strings"
)

// PrintTree renders plan as a human-readable indented tree: "E~ClassName(args)
// on dispatcher" for each exec node, "T~TransformerName(args)" for each
// transformer attached to it, per spec.md §6.
func PrintTree(plan ExecPlan) string {
	var b strings.Builder
	printTreeAt(&b, plan, 0)
	return b.String()
}

func printTreeAt(b *strings.Builder, plan ExecPlan, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString("E~")
	b.WriteString(plan.PlanClass())
	b.WriteString("(")
	b.WriteString(plan.Args())
	b.WriteString(") on ")
	b.WriteString(dispatcherName(plan.Dispatcher()))
	b.WriteString("\n")

	trIndent := strings.Repeat("  ", depth+1)
	for _, tr := range plan.Transformers() {
		b.WriteString(trIndent)
		b.WriteString("T~")
		b.WriteString(tr.Name())
		b.WriteString("(")
		b.WriteString(tr.Args())
		b.WriteString(")\n")
	}

	for _, child := range plan.Children() {
		printTreeAt(b, child, depth+1)
	}
}

func dispatcherName(d Dispatcher) string {
	if d == nil {
		return "none"
	}
	switch d.(type) {
	case *LocalDispatcher:
		return "local"
	default:
		return "remote"
	}
}
