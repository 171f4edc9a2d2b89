package defaults

import (
	"strings"
	"testing"
)

func TestTestsReturnsCopy(t *testing.T) {
	a := Tests()
	a[0] = "mutated"
	if DefaultTests[0] != "sql" {
		t.Fatalf("DefaultTests mutated through Tests(): %v", DefaultTests)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(""); got != ToolName+"/"+Version {
		t.Errorf("UserAgent(\"\") = %q", got)
	}
	if got := UserAgent("burst"); !strings.HasSuffix(got, "(burst)") {
		t.Errorf("UserAgent(burst) = %q, want component suffix", got)
	}
}

func TestBurstFitsConnectionPool(t *testing.T) {
	if MaxConnsPerHost < BurstSize {
		t.Errorf("MaxConnsPerHost %d < BurstSize %d", MaxConnsPerHost, BurstSize)
	}
}

func TestTestsForGraphQL(t *testing.T) {
	got := TestsFor("GraphQL")
	if len(got) != 5 || got[0] != "introspection" || got[3] != "dos" {
		t.Fatalf("TestsFor(GraphQL) = %v", got)
	}
	if rest := TestsFor("REST"); len(rest) != len(DefaultTests) {
		t.Fatalf("TestsFor(REST) = %v", rest)
	}
}
