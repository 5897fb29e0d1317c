// Package compiler drives a LaTeX document through the external engine.
//
// Service.Compile is the whole pipeline for one request:
//
//	raw text -> texsource.Prepare -> workspace.Acquire -> Orchestrator.Run
//	         -> ReadArtifact / ReadLog -> Encode -> Outcome -> workspace.Release
//
// Every expected failure (empty input, unwritable source, engine missing,
// engine rejecting the document, missing or empty PDF, encoding trouble)
// becomes a failure Outcome carrying the engine log when one exists. Only
// unexpected faults, such as a workspace that cannot be created or a canceled
// request context, are returned as errors.
//
// The engine runs a fixed number of passes (two by default) so that
// cross-references written to the .aux file by the first pass are resolved by
// the second. Documents that need more passes are not detected beyond a
// warning when the final log asks for a rerun.
package compiler
