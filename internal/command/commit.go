package command

import (
	"fmt"
)

type commitAction struct {
	cmd    string
	enable bool
}

// Commit diffs candidate against active, applies the difference through
// each node's CommitFunc, and — on success — makes candidate the new
// active. A failed action reverts everything already applied and leaves
// both trees untouched. Adapted from src/command/commit.go, with the
// file-based commit-history persistence dropped (DESIGN.md): a single
// protocol agent's config surface has no multi-subsystem reload story that
// numbered snapshot files were solving for the teacher's router.
func Commit(ctx ConfContext, c CmdClient) error {
	active := ctx.ConfRootActive()
	candidate := ctx.ConfRootCandidate()

	var plan []commitAction
	for _, path := range findRemoved(active, candidate) {
		plan = append(plan, commitAction{cmd: path, enable: false})
	}
	for _, path := range findRemoved(candidate, active) {
		plan = append(plan, commitAction{cmd: path, enable: true})
	}

	for i, action := range plan {
		node, err := CmdFind(ctx.CmdRoot(), action.cmd, CONF)
		if err != nil {
			c.Sendln(fmt.Sprintf("commit: %s", err))
			revert(ctx, c, plan, i-1)
			return err
		}
		if node.Apply == nil {
			err := fmt.Errorf("command.Commit: %q: missing commit func", action.cmd)
			c.Sendln(err.Error())
			revert(ctx, c, plan, i-1)
			return err
		}
		if err := node.Apply(ctx, node, action.cmd, action.enable, c); err != nil {
			c.Sendln(fmt.Sprintf("commit: %q: %v", action.cmd, err))
			revert(ctx, c, plan, i-1)
			return err
		}
	}

	*active = *candidate.Clone()
	return nil
}

func revert(ctx ConfContext, c CmdClient, plan []commitAction, upTo int) {
	for i := upTo; i >= 0; i-- {
		action := plan[i]
		undo := !action.enable
		node, err := CmdFind(ctx.CmdRoot(), action.cmd, CONF)
		if err != nil || node.Apply == nil {
			continue
		}
		if err := node.Apply(ctx, node, action.cmd, undo, c); err != nil {
			c.Sendln(fmt.Sprintf("revert: %q: %v", action.cmd, err))
		}
	}
}

// findRemoved returns the full committed lines (path plus any scalar value,
// exactly as CmdFind needs to walk through pattern-keyword nodes like
// {METRIC}) present as leaves in "from" but absent from "to" — i.e. what
// must be disabled to turn "from" into "to".
func findRemoved(from, to *ConfNode) []string {
	var out []string
	var walk func(f, t *ConfNode)
	walk = func(f, t *ConfNode) {
		for _, fc := range f.Children {
			label := LastToken(fc.Path)
			var tc *ConfNode
			if t != nil {
				if idx := t.FindChild(label); idx >= 0 {
					tc = t.Children[idx]
				}
			}
			if tc == nil {
				out = append(out, leafPaths(fc)...)
				continue
			}
			if len(fc.Value) > 0 {
				for _, v := range fc.Value {
					if tc.ValueIndex(v) < 0 {
						out = append(out, fmt.Sprintf("%s %s", fc.Path, v))
					}
				}
			}
			walk(fc, tc)
		}
	}
	walk(from, to)
	return out
}

func leafPaths(n *ConfNode) []string {
	if len(n.Children) == 0 {
		if len(n.Value) == 0 {
			return []string{n.Path}
		}
		out := make([]string, len(n.Value))
		for i, v := range n.Value {
			out[i] = fmt.Sprintf("%s %s", n.Path, v)
		}
		return out
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, leafPaths(c)...)
	}
	return out
}
