// Package texsource prepares untrusted LaTeX text for the typesetting engine.
//
// Preparation is two steps:
//
//  1. Normalize cleans the raw text: line endings become "\n", control
//     characters other than tab and newline are removed, surrounding
//     whitespace is trimmed. Empty input is rejected.
//  2. Repair injects the minimum scaffolding the engine needs
//     (\documentclass, \begin{document}, \end{document}) when it is absent.
//
// Repair is a text-patching heuristic, not a LaTeX parser. It never rejects
// input and can misplace \begin{document} for unusual preambles.
package texsource
