// Package diff computes and renders line diffs between an "old" and a "new" text, and three-way comparisons of two texts against a common ancestor.
//
// Representation: A Diff holds the complete OldText/NewText and an ordered slice of hunks that, when concatenated, reconstruct both sides. Each hunk has an Op:
//   - OpEqual: unchanged region (OldText == NewText)
//   - OpInsert: text present only in the new side (OldText == "")
//   - OpDelete: text present only in the old side (NewText == "")
//   - OpReplace: text changed on both sides
//
// For non-equal hunks, Lines holds per-line changes; for non-equal lines, Spans holds intra-line segments on token boundaries. Lines include their terminator ("\n", "\r\n",
// or "\r") if the input had one; Spans never do.
//
// Lines are matched with the rangediff engine over linecmp comparators, and spans with the same engine over tokencmp comparators. Consumers should rely on the invariants
// documented on each type rather than on a particular chunking.
//
// Getting a diff:
//
//	d := diff.DiffText(oldText, newText)
//	fmt.Println(d.RenderUnifiedDiff(false, "old.txt", "new.txt", 3))
//
// Three-way: Merge3Text classifies each region as unchanged, changed on one side, changed identically on both, or conflicting. Merge3.RenderMarkers produces merged text with
// diff3-style conflict markers; Merge3.RenderSideBySide produces a three-column table for terminals.
package diff
