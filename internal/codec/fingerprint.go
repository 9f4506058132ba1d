package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
)

// Domain prefix for content-addressed expression identity. The version suffix
// enables future algorithm migration without colliding with old fingerprints.
const fingerprintDomain = "sift/expression/v1"

// Fingerprint computes a content-addressed identity for an expression:
// SHA-256 over the RFC 8785 canonical JSON of its persistence document, with
// domain separation. Structurally equal expressions fingerprint identically
// regardless of map iteration order or edit history.
func Fingerprint(e forest.Expression) (string, error) {
	canonical, err := canonicalDocument(e)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00}) // null separator avoids domain/data boundary ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalDocument renders the persistence document into the restricted
// model expr.MarshalCanonical accepts.
func canonicalDocument(e forest.Expression) ([]byte, error) {
	doc := buildDocument(e)

	nodes := make(map[string]any, len(doc.Nodes))
	for key, nj := range doc.Nodes {
		n := map[string]any{
			"type": nj.Type,
			"id":   nj.ID,
		}
		if nj.Field != nil {
			n["field"] = map[string]any{
				"table":  nj.Field.Table,
				"column": nj.Field.Column,
				"type":   string(nj.Field.Kind),
			}
		}
		putOpt := func(k string, v *string) {
			if v != nil {
				n[k] = *v
			}
		}
		putOpt("leftOperator", nj.LeftOperator)
		putOpt("leftValue", nj.LeftValue)
		putOpt("rightOperator", nj.RightOperator)
		putOpt("rightValue", nj.RightValue)
		putOpt("operator", nj.Operator)
		nodes[key] = n
	}

	roots := make([]any, 0, len(doc.Roots))
	for _, r := range doc.Roots {
		roots = append(roots, r)
	}

	children := make(map[string]any, len(doc.Children))
	for key, kids := range doc.Children {
		ks := make([]any, 0, len(kids))
		for _, c := range kids {
			ks = append(ks, c)
		}
		children[key] = ks
	}

	parents := make(map[string]any, len(doc.Parents))
	for key, p := range doc.Parents {
		parents[key] = p
	}

	return expr.MarshalCanonical(map[string]any{
		"nodes":    nodes,
		"roots":    roots,
		"children": children,
		"parents":  parents,
	})
}
