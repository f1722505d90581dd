// Package workflow routes evaluated estimates to their next step.
//
// Routing is first match wins, in fixed priority order: critical
// findings force manual review, fully gated estimates auto-approve,
// applied corrections go to post-correction review, and everything
// else lands in standard review. Review triggers are attached to every
// decision regardless of path so human reviewers see the same flags
// the router saw.
package workflow
