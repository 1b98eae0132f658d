package canonicalize

import (
	"encoding/json"
	"testing"

	webpkijcs "github.com/gowebpki/jcs"
)

// TestJCS_ConformsToReferenceImplementation cross-checks our recursive
// marshaler against github.com/gowebpki/jcs, the reference RFC 8785
// transform, on the shapes the audit writer actually produces: nested
// objects, arrays, and the empty object the facade falls back to when
// marshaling fails.
func TestJCS_ConformsToReferenceImplementation(t *testing.T) {
	cases := []string{
		`{"b":2,"a":1}`,
		`{"env":{"ipAddress":"10.0.0.1","hourOfDay":14},"evaluatedPolicies":[{"policyId":"p1","outcome":"Permit"}],"truncated":false}`,
		`{"nested":{"z":1,"a":2},"arr":[3,1,2]}`,
		`{}`,
		`{"unicode":"\u65e5\u672c\u8a9e","escaped":"line1\nline2"}`,
	}

	for _, raw := range cases {
		want, err := webpkijcs.Transform([]byte(raw))
		if err != nil {
			t.Fatalf("reference transform failed for %s: %v", raw, err)
		}

		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("decode failed for %s: %v", raw, err)
		}
		got, err := JCS(v)
		if err != nil {
			t.Fatalf("JCS failed for %s: %v", raw, err)
		}

		if string(got) != string(want) {
			t.Errorf("canonical form mismatch for %s:\n got:  %s\n want: %s", raw, got, want)
		}
	}
}
