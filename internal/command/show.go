package command

import "fmt"

// ShowConf renders root's children as indented "configure"-style lines
// (adapted from src/command/show_conf.go's tree mode; the teacher's
// alternate line-oriented WriteConfig renderer is dropped — RIP's config
// tree is shallow enough that the tree view alone is legible).
func ShowConf(root *ConfNode, c CmdClient) {
	for _, n := range root.Children {
		showConfTree(n, 0, c)
	}
}

func showConfTree(node *ConfNode, depth int, c CmdClient) {
	label := LastToken(node.Path)
	for _, v := range node.Value {
		label = fmt.Sprintf("%s %s", label, v)
	}
	c.Sendln(fmt.Sprintf("%*s%s", depth, "", label))
	for _, child := range node.Children {
		showConfTree(child, depth+2, c)
	}
}
