package matching

import "github.com/beevik/etree"

// XPath parses body as XML with lenient error handling and reports
// whether expr selects any node. An unparseable document or a
// malformed expression is a non-match.
func XPath(expr string, body []byte) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return false
	}

	path, err := etree.CompilePath(expr)
	if err != nil {
		return false
	}
	return len(doc.FindElementsPath(path)) > 0
}
