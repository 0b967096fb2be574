package graph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/classifier"
	"github.com/Chris-Cullins/TestIntel-sub004/pkg/methodid"
)

// Serialization format: a fixed magic/version prefix, the node table in
// index order, then each node's forward adjacency. Reverse adjacency and
// the id index are rebuilt on load. Every field is written in a fixed
// order with length-prefixed strings, so serializing the same sealed
// graph twice yields byte-identical output.
const (
	serializeMagic   uint32 = 0x54494747 // "TIGG"
	serializeVersion uint16 = 1
)

// ErrCorruptGraph is returned when a serialized graph fails structural
// validation.
var ErrCorruptGraph = errors.New("graph: corrupt serialized payload")

// MarshalBinary serializes the sealed graph deterministically.
func (g *MethodCallGraph) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	w := func(v any) {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}

	w(serializeMagic)
	w(serializeVersion)
	w(int32(len(g.nodes)))
	w(int32(g.unresolvedCalls))

	for i := range g.nodes {
		n := &g.nodes[i]

		writeString(&buf, string(n.ID))
		writeString(&buf, n.ContainingType)
		writeString(&buf, n.FilePath)
		writeString(&buf, string(n.TestType))
		writeString(&buf, string(n.Category))
		w(int32(n.StartLine))
		w(int32(n.EndLine))
		w(boolByte(n.IsTest))
		w(math.Float64bits(n.ClassifierConfidence))
	}

	for i := range g.nodes {
		adj := g.Forward[i]
		w(int32(len(adj)))

		for _, to := range adj {
			w(to)
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary reconstructs a sealed graph from MarshalBinary output,
// rebuilding the reverse adjacency as the transpose of the forward edges
// and re-interning the id index.
func UnmarshalBinary(data []byte) (*MethodCallGraph, error) {
	r := bytes.NewReader(data)

	var (
		m       uint32
		version uint16
	)

	if err := binary.Read(r, binary.LittleEndian, &m); err != nil || m != serializeMagic {
		return nil, ErrCorruptGraph
	}

	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != serializeVersion {
		return nil, ErrCorruptGraph
	}

	var nodeCount, unresolved int32

	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil || nodeCount < 0 {
		return nil, ErrCorruptGraph
	}

	if err := binary.Read(r, binary.LittleEndian, &unresolved); err != nil {
		return nil, ErrCorruptGraph
	}

	g := &MethodCallGraph{
		nodes:           make([]MethodNode, nodeCount),
		index:           make(map[methodid.ID]int32, nodeCount*2),
		Forward:         make([][]int32, nodeCount),
		Reverse:         make([][]int32, nodeCount),
		unresolvedCalls: int(unresolved),
	}

	for i := int32(0); i < nodeCount; i++ {
		n, err := readNode(r)
		if err != nil {
			return nil, err
		}

		g.nodes[i] = n
		g.index[n.ID] = i
		g.index[methodid.ID(n.ID.Normalized())] = i
	}

	for i := int32(0); i < nodeCount; i++ {
		var degree int32
		if err := binary.Read(r, binary.LittleEndian, &degree); err != nil || degree < 0 {
			return nil, ErrCorruptGraph
		}

		adj := make([]int32, degree)
		for j := int32(0); j < degree; j++ {
			if err := binary.Read(r, binary.LittleEndian, &adj[j]); err != nil {
				return nil, ErrCorruptGraph
			}

			if adj[j] < 0 || adj[j] >= nodeCount {
				return nil, fmt.Errorf("%w: edge %d -> %d out of range", ErrCorruptGraph, i, adj[j])
			}
		}

		g.Forward[i] = adj

		for _, to := range adj {
			g.Reverse[to] = append(g.Reverse[to], i)
		}
	}

	return g, nil
}

func readNode(r *bytes.Reader) (MethodNode, error) {
	var n MethodNode

	id, err := readString(r)
	if err != nil {
		return n, err
	}

	containingType, err := readString(r)
	if err != nil {
		return n, err
	}

	filePath, err := readString(r)
	if err != nil {
		return n, err
	}

	testType, err := readString(r)
	if err != nil {
		return n, err
	}

	category, err := readString(r)
	if err != nil {
		return n, err
	}

	var startLine, endLine int32

	if err := binary.Read(r, binary.LittleEndian, &startLine); err != nil {
		return n, ErrCorruptGraph
	}

	if err := binary.Read(r, binary.LittleEndian, &endLine); err != nil {
		return n, ErrCorruptGraph
	}

	var isTest byte
	if err := binary.Read(r, binary.LittleEndian, &isTest); err != nil {
		return n, ErrCorruptGraph
	}

	var confBits uint64
	if err := binary.Read(r, binary.LittleEndian, &confBits); err != nil {
		return n, ErrCorruptGraph
	}

	n.ID = methodid.New(id)
	n.ContainingType = containingType
	n.FilePath = filePath
	n.TestType = classifier.TestType(testType)
	n.Category = classifier.MethodCategory(category)
	n.StartLine = int(startLine)
	n.EndLine = int(endLine)
	n.IsTest = isTest != 0
	n.ClassifierConfidence = math.Float64frombits(confBits)

	return n, nil
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.LittleEndian, int32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil || n < 0 || int(n) > r.Len() {
		return "", ErrCorruptGraph
	}

	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", ErrCorruptGraph
	}

	return string(b), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
