package syntax

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// MethodInfo is a method or constructor declaration discovered in a
// SyntaxTree, with enough context to build its MethodId and classify it.
type MethodInfo struct {
	Namespace      string
	ContainingType string
	Name           string
	ParamTypes     []string
	Attributes     []string
	StartLine      int
	EndLine        int
	CallSites      []CallSite
	IsPublic       bool
}

// CallSite is a best-effort resolved invocation found in a method body.
// Name is the simple or dotted callee text as written at the call site;
// exact overload resolution is out of scope, matching methodid's
// tolerance for fuzzy matches.
type CallSite struct {
	Name string
	Line int
}

// declNodeTypes are the tree-sitter node kinds treated as method-like
// declarations worth indexing.
var declNodeTypes = map[string]bool{
	"method_declaration":       true,
	"constructor_declaration":  true,
	"local_function_statement": true,
}

// typeNodeTypes are the node kinds that open a new containing-type scope.
var typeNodeTypes = map[string]bool{
	"class_declaration":     true,
	"struct_declaration":    true,
	"interface_declaration": true,
	"record_declaration":    true,
}

// ExtractMethods walks a SyntaxTree and returns every method-like
// declaration it contains, tracking enclosing namespace and type context.
func ExtractMethods(t *SyntaxTree) []MethodInfo {
	var out []MethodInfo

	walk(t, t.Root(), "", nil, &out)

	return out
}

func walk(t *SyntaxTree, n sitter.Node, namespace string, typeStack []string, out *[]MethodInfo) {
	switch {
	case n.Type() == "namespace_declaration" || n.Type() == "file_scoped_namespace_declaration":
		// A namespace name is a bare identifier ("Billing") or a
		// qualified_name ("Billing.Services").
		count := n.NamedChildCount()
		for i := uint32(0); i < count; i++ {
			child := n.NamedChild(i)
			if child.Type() == "identifier" || child.Type() == "qualified_name" {
				namespace = t.Text(child)

				break
			}
		}
	case typeNodeTypes[n.Type()]:
		name := firstIdentifierText(t, n)
		if name != "" {
			typeStack = append(typeStack, name)
		}
	case declNodeTypes[n.Type()]:
		*out = append(*out, extractMethodInfo(t, n, namespace, typeStack))
	}

	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		walk(t, n.NamedChild(i), namespace, typeStack, out)
	}
}

func extractMethodInfo(t *SyntaxTree, n sitter.Node, namespace string, typeStack []string) MethodInfo {
	start, end := t.LineRange(n)

	info := MethodInfo{
		Namespace:      namespace,
		ContainingType: strings.Join(typeStack, "."),
		Name:           firstIdentifierText(t, n),
		StartLine:      start,
		EndLine:        end,
	}

	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		child := n.NamedChild(i)

		switch child.Type() {
		case "parameter_list":
			info.ParamTypes = extractParamTypes(t, child)
		case "attribute_list":
			info.Attributes = append(info.Attributes, extractAttributeNames(t, child)...)
		case "block", "arrow_expression_clause":
			collectCallSites(t, child, &info.CallSites)
		case "modifier":
			if strings.EqualFold(t.Text(child), "public") {
				info.IsPublic = true
			}
		}
	}

	if info.Name == "" && len(typeStack) > 0 {
		// Constructors share their containing type's name in C#.
		info.Name = typeStack[len(typeStack)-1]
	}

	return info
}

func extractParamTypes(t *SyntaxTree, paramList sitter.Node) []string {
	var types []string

	count := paramList.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		param := paramList.NamedChild(i)
		if param.Type() != "parameter" {
			continue
		}

		pc := param.NamedChildCount()
		for j := uint32(0); j < pc; j++ {
			c := param.NamedChild(j)
			if isTypeNode(c.Type()) {
				types = append(types, t.Text(c))

				break
			}
		}
	}

	return types
}

func isTypeNode(nodeType string) bool {
	switch nodeType {
	case "predefined_type", "identifier", "qualified_name", "generic_name", "array_type", "nullable_type":
		return true
	default:
		return false
	}
}

func extractAttributeNames(t *SyntaxTree, attrList sitter.Node) []string {
	var names []string

	count := attrList.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		attr := attrList.NamedChild(i)
		if attr.Type() != "attribute" {
			continue
		}

		name := firstIdentifierText(t, attr)
		if name != "" {
			names = append(names, name)
		}
	}

	return names
}

func collectCallSites(t *SyntaxTree, n sitter.Node, out *[]CallSite) {
	if n.Type() == "invocation_expression" {
		if callee := n.NamedChild(0); !callee.IsNull() {
			name := calleeName(t, callee)
			if name != "" {
				start, _ := t.LineRange(n)
				*out = append(*out, CallSite{Name: name, Line: start})
			}
		}
	}

	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		collectCallSites(t, n.NamedChild(i), out)
	}
}

func calleeName(t *SyntaxTree, n sitter.Node) string {
	switch n.Type() {
	case "identifier", "qualified_name", "generic_name":
		return t.Text(n)
	case "member_access_expression":
		count := n.NamedChildCount()
		if count == 0 {
			return t.Text(n)
		}

		return t.Text(n.NamedChild(count - 1))
	default:
		return ""
	}
}

// firstIdentifierText returns the text of the first identifier-like named
// child of n, which for a declaration node is its name.
func firstIdentifierText(t *SyntaxTree, n sitter.Node) string {
	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		child := n.NamedChild(i)
		if child.Type() == "identifier" {
			return t.Text(child)
		}
	}

	return ""
}
