package engine

import (
	"errors"
	"reflect"
	"testing"
)

// -----------------------------------------------------------------------------
// Test Node Implementation
// -----------------------------------------------------------------------------

// testNode implements DependencyNode for testing.
type testNode struct {
	id   string
	deps []string
}

func (n *testNode) ID() string             { return n.id }
func (n *testNode) Dependencies() []string { return n.deps }

// newNode creates a test node with the given ID and dependencies.
func newNode(id string, deps ...string) *testNode {
	return &testNode{id: id, deps: deps}
}

// getIDs extracts IDs from a slice of nodes.
func getIDs(nodes []*testNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return ids
}

// -----------------------------------------------------------------------------
// TopoSort Tests
// -----------------------------------------------------------------------------

func TestTopoSort_EmptyInput(t *testing.T) {
	result, err := TopoSort[*testNode](nil)
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	if result != nil {
		t.Errorf("TopoSort() = %v, want nil", result)
	}
}

func TestTopoSort_Order(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*testNode
		want  []string
	}{
		{
			name:  "single",
			nodes: []*testNode{newNode("A")},
			want:  []string{"A"},
		},
		{
			name:  "linear chain",
			nodes: []*testNode{newNode("C", "B"), newNode("B", "A"), newNode("A")},
			want:  []string{"A", "B", "C"},
		},
		{
			name: "diamond",
			nodes: []*testNode{
				newNode("D", "B", "C"),
				newNode("B", "A"),
				newNode("C", "A"),
				newNode("A"),
			},
			want: []string{"A", "B", "C", "D"},
		},
		{
			name:  "independent nodes sorted by id",
			nodes: []*testNode{newNode("C"), newNode("A"), newNode("B")},
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "external dependency ignored",
			nodes: []*testNode{newNode("B", "A", "X"), newNode("A")},
			want:  []string{"A", "B"},
		},
		{
			name:  "self dependency ignored",
			nodes: []*testNode{newNode("Categories", "Categories"), newNode("Articles", "Categories")},
			want:  []string{"Categories", "Articles"},
		},
		{
			name:  "duplicate dependency counted once",
			nodes: []*testNode{newNode("Posts", "Users", "Users"), newNode("Users")},
			want:  []string{"Users", "Posts"},
		},
		{
			name: "complex graph",
			nodes: []*testNode{
				newNode("G", "E", "F", "D"),
				newNode("E", "B", "C"),
				newNode("F", "C"),
				newNode("B", "A"),
				newNode("C", "A"),
				newNode("D", "A"),
				newNode("A"),
			},
			want: []string{"A", "B", "C", "D", "E", "F", "G"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := TopoSort(tt.nodes)
			if err != nil {
				t.Fatalf("TopoSort() error = %v", err)
			}
			if got := getIDs(result); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopoSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopoSort_Cycles(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*testNode
	}{
		{"two nodes", []*testNode{newNode("A", "B"), newNode("B", "A")}},
		{"three nodes", []*testNode{newNode("A", "C"), newNode("B", "A"), newNode("C", "B")}},
		{"cycle behind a root", []*testNode{newNode("R"), newNode("A", "R", "B"), newNode("B", "A")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TopoSort(tt.nodes)
			if !errors.Is(err, ErrCircularDependency) {
				t.Errorf("TopoSort() error = %v, want ErrCircularDependency", err)
			}
		})
	}
}

func TestTopoSort_DeterministicOrder(t *testing.T) {
	nodes := []*testNode{
		newNode("D", "B", "C"),
		newNode("B", "A"),
		newNode("C", "A"),
		newNode("A"),
	}

	first, err := TopoSort(nodes)
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		result, err := TopoSort(nodes)
		if err != nil {
			t.Fatalf("TopoSort() error = %v", err)
		}
		if !reflect.DeepEqual(getIDs(result), getIDs(first)) {
			t.Fatalf("TopoSort() inconsistent order on iteration %d: got %v, want %v", i, getIDs(result), getIDs(first))
		}
	}
}
