// Package command implements the candidate/active configuration tree and
// command dispatcher the RIP console runs on: a CmdNode tree describes the
// grammar (with pattern keywords like {IFNAME}), a ConfNode tree holds the
// actual candidate/active configuration, and Dispatch walks user input
// through both. Adapted from src/command/cmd.go, trimmed of the generic
// router's config-file persistence (§9 in DESIGN.md) since a single-protocol
// agent's config surface needs only in-memory candidate/active/commit, not
// numbered snapshot files on disk.
package command

import (
	"fmt"
	"log"
	"strings"
)

// Status levels a client session can be at, gating which commands are
// reachable (mirrors the teacher's EXEC/ENAB/CONF ladder, RIP-sized).
const (
	EXEC = iota
	ENAB
	CONF
)

// CMD_WILDCARD_ANY marks a command node that swallows the rest of the line
// verbatim (used for description-like free text; unused by RIP's own
// command set today, kept because CmdFind's matching logic depends on it).
const CMD_WILDCARD_ANY = "{ANY}"

// CmdClient is what a command handler needs from its calling console
// session: where it is in the config tree, and how to talk back.
type CmdClient interface {
	ConfigPath() string
	ConfigPathSet(path string)
	Sendln(msg string)
	Status() int
}

// CmdFunc executes a leaf command. CommitFunc applies (enable=true) or
// undoes (enable=false) a configuration node during Commit; line is the
// literal committed path (e.g. "rip interface eth0 metric 3"), since node
// itself only ever carries the grammar pattern ("rip interface {IFNAME}
// metric {METRIC}").
type CmdFunc func(ctx ConfContext, node *CmdNode, line string, c CmdClient)
type CommitFunc func(ctx ConfContext, node *CmdNode, line string, enable bool, c CmdClient) error

const (
	CmdNone = uint64(0)
	// CmdConf marks a node as a configuration command: it needs an Apply
	// func and participates in Commit's candidate/active diff.
	CmdConf = uint64(1 << 0)
)

// CmdNode is one node of the command grammar tree.
type CmdNode struct {
	Path     string
	Desc     string
	MinLevel int
	Handler  CmdFunc
	Apply    CommitFunc
	Children []*CmdNode
	Options  uint64
}

func (n *CmdNode) IsConfig() bool { return n.Options&CmdConf != 0 }

func (n *CmdNode) MatchAny() bool {
	return LastToken(n.Path) == CMD_WILDCARD_ANY
}

// ConfNode is one node of the actual configuration: a path plus zero or
// more scalar values (a leaf like "rip split-horizon" holds one value; an
// intermediate node like "rip interface eth0" holds none).
type ConfNode struct {
	Path     string
	Value    []string
	Children []*ConfNode
}

func (n *ConfNode) Clone() *ConfNode {
	c := &ConfNode{Path: n.Path, Value: append([]string(nil), n.Value...)}
	c.Children = make([]*ConfNode, len(n.Children))
	for i, child := range n.Children {
		c.Children[i] = child.Clone()
	}
	return c
}

func (n *ConfNode) ValueIndex(value string) int {
	for i, v := range n.Value {
		if v == value {
			return i
		}
	}
	return -1
}

func (n *ConfNode) ValueSet(value string) { n.Value = []string{value} }

func (n *ConfNode) ValueAdd(value string) {
	if n.ValueIndex(value) < 0 {
		n.Value = append(n.Value, value)
	}
}

func (n *ConfNode) ValueDelete(value string) error {
	i := n.ValueIndex(value)
	if i < 0 {
		return fmt.Errorf("command: value not found: path=%q value=%q", n.Path, value)
	}
	last := len(n.Value) - 1
	n.Value[i] = n.Value[last]
	n.Value = n.Value[:last]
	return nil
}

func (n *ConfNode) FindChild(label string) int {
	for i, c := range n.Children {
		if LastToken(c.Path) == label {
			return i
		}
	}
	return -1
}

func (n *ConfNode) deleteChildByIndex(i int) {
	last := len(n.Children) - 1
	n.Children[i] = n.Children[last]
	n.Children[last] = nil
	n.Children = n.Children[:last]
}

// Prune drops child from parent. Only that one link is removed: parent and
// its ancestors stay in the tree even when left with no children and no
// value.
func (n *ConfNode) Prune(parent, child *ConfNode) {
	i := parent.FindChild(LastToken(child.Path))
	if i < 0 {
		return
	}
	parent.deleteChildByIndex(i)
}

// Set walks (creating as needed) the path described by line under n,
// returning the final node and whether it already existed.
func (n *ConfNode) Set(line string) (*ConfNode, bool) {
	labels := strings.Fields(line)
	parent := n
	existed := len(labels) > 0
	for i, label := range labels {
		if idx := parent.FindChild(label); idx >= 0 {
			parent = parent.Children[idx]
			continue
		}
		existed = false
		newNode := &ConfNode{Path: strings.Join(labels[:i+1], " ")}
		parent.Children = append(parent.Children, newNode)
		parent = newNode
	}
	return parent, existed
}

// Get returns the node at path, or nil.
func (n *ConfNode) Get(path string) *ConfNode {
	labels := strings.Fields(path)
	parent := n
	for _, label := range labels {
		idx := parent.FindChild(label)
		if idx < 0 {
			return nil
		}
		parent = parent.Children[idx]
	}
	return parent
}

// ConfContext is what Dispatch and Commit need from the running agent: the
// grammar root and the candidate/active configuration roots.
type ConfContext interface {
	CmdRoot() *CmdNode
	ConfRootCandidate() *ConfNode
	ConfRootActive() *ConfNode
}

func LastToken(path string) string {
	f := strings.Fields(path)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

func StripLastToken(path string) (string, string) {
	last := strings.LastIndexByte(path, ' ')
	if last < 0 {
		return "", path
	}
	return path[:last], path[last+1:]
}

// CmdInstall adds a command at path to the grammar rooted at root.
func CmdInstall(root *CmdNode, opt uint64, path string, min int, cmd CmdFunc, apply CommitFunc, desc string) {
	isConfig := opt&CmdConf != 0
	if isConfig && apply == nil {
		log.Fatalf("command.CmdInstall: %q: configuration node missing commit func", path)
	}
	if !isConfig && apply != nil {
		log.Fatalf("command.CmdInstall: %q: non-configuration node given a commit func", path)
	}

	if existing, err := CmdFind(root, path, CONF); err == nil && existing.Path == path {
		log.Printf("command.CmdInstall: %q: already installed", path)
		return
	}

	labels := strings.Fields(path)
	parent := root
	for i, label := range labels {
		if child := findChild(parent, label); child != nil {
			parent = child
			continue
		}
		if IsPatternKeyword(label) && findKeyword(label) == nil {
			log.Printf("command.CmdInstall: %q: unknown pattern keyword %q", path, label)
		}
		last := i == len(labels)-1
		node := &CmdNode{Path: strings.Join(labels[:i+1], " "), MinLevel: min}
		if last {
			node.Desc, node.Handler, node.Apply, node.Options = desc, cmd, apply, opt
		}
		parent.Children = append(parent.Children, node)
		parent = node
	}
}

func findChild(node *CmdNode, label string) *CmdNode {
	for _, c := range node.Children {
		if LastToken(c.Path) == label {
			return c
		}
	}
	return nil
}

// CmdFind resolves path (a sequence of, possibly abbreviated, labels) to a
// single unambiguous CmdNode reachable at level.
func CmdFind(root *CmdNode, path string, level int) (*CmdNode, error) {
	parent := root
	for _, label := range strings.Fields(path) {
		if len(parent.Children) == 1 && parent.Children[0].MatchAny() {
			return checkLevel(parent.Children[0], path, level)
		}
		matches, err := matchChildren(parent.Children, label)
		if err != nil {
			return nil, fmt.Errorf("command.CmdFind: %q under %q: %w", label, parent.Path, err)
		}
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("command.CmdFind: not found: %q under %q", label, parent.Path)
		case 1:
			parent = matches[0]
		default:
			return nil, fmt.Errorf("command.CmdFind: ambiguous: %q under %q", label, parent.Path)
		}
	}
	return checkLevel(parent, path, level)
}

func matchChildren(children []*CmdNode, label string) ([]*CmdNode, error) {
	var out []*CmdNode
	for _, n := range children {
		last := LastToken(n.Path)
		if IsPatternKeyword(last) {
			if err := MatchKeyword(last, label); err != nil {
				continue // this keyword rejects the label; try others
			}
			out = append(out, n)
			continue
		}
		if strings.HasPrefix(last, label) {
			out = append(out, n)
		}
	}
	return out, nil
}

func checkLevel(node *CmdNode, path string, level int) (*CmdNode, error) {
	if node.MinLevel > level {
		return nil, fmt.Errorf("command.CmdFind: %q requires a higher privilege level", path)
	}
	return node, nil
}

// CmdExpand rewrites a pattern-keyword grammar path into the literal line
// the user typed, so it can key a ConfNode:
//
//	line: "rip interface eth0 metric 3"
//	path: "rip interface {IFNAME} metric {METRIC}"
//	out:  "rip interface eth0 metric 3"
func CmdExpand(line, path string) (string, error) {
	lineFields := strings.Fields(line)
	pathFields := strings.Fields(path)
	if len(lineFields) != len(pathFields) {
		return "", fmt.Errorf("command.CmdExpand: length mismatch: line=%d path=%d", len(lineFields), len(pathFields))
	}
	return strings.Join(lineFields, " "), nil
}

// Dispatch resolves rawLine against root's grammar (relative to the
// session's current config path, if any) and runs its handler.
func Dispatch(ctx ConfContext, rawLine string, c CmdClient) error {
	line := strings.TrimLeft(rawLine, " ")
	if line == "" || line[0] == '#' {
		return nil
	}

	node, lookupPath, err := findRelative(ctx.CmdRoot(), line, c.ConfigPath(), c.Status())
	if err != nil {
		return fmt.Errorf("command.Dispatch: %q: %w", line, err)
	}

	if node.Handler == nil {
		if node.IsConfig() {
			c.ConfigPathSet(lookupPath)
			return nil
		}
		return fmt.Errorf("command.Dispatch: %q: command has no handler", line)
	}

	node.Handler(ctx, node, lookupPath, c)
	return nil
}

func findRelative(root *CmdNode, line, configPath string, status int) (*CmdNode, string, error) {
	if n, err := CmdFind(root, line, status); err == nil && !n.IsConfig() {
		return n, line, nil // exec-level command, never relative to configPath
	}

	lookupPath := line
	if configPath != "" {
		lookupPath = configPath + " " + line
	}
	node, err := CmdFind(root, lookupPath, status)
	if err != nil {
		// fall back to an absolute (top-level) match
		if n2, err2 := CmdFind(root, line, status); err2 == nil {
			return n2, line, nil
		}
		return nil, lookupPath, err
	}
	return node, lookupPath, nil
}
