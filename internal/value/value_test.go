package value

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_PreservesKeyOrder(t *testing.T) {
	v := mustParse(t, `{"zeta":1,"alpha":{"b":2,"a":3},"mid":[1,"x",null,true]}`)

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, v.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"zeta":1,"alpha":{"b":2,"a":3},"mid":[1,"x",null,true]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestParse_RejectsTrailingData(t *testing.T) {
	if _, err := Parse([]byte(`{} {}`)); err == nil {
		t.Error("Parse() expected error for trailing data")
	}
	if _, err := Parse([]byte(`{"a":`)); err == nil {
		t.Error("Parse() expected error for truncated input")
	}
}

func TestFromAny_RoundTrip(t *testing.T) {
	var raw any
	if err := json.Unmarshal([]byte(`{"b":[1,2,{"c":"d"}],"a":false}`), &raw); err != nil {
		t.Fatal(err)
	}

	v, err := FromAny(raw)
	if err != nil {
		t.Fatalf("FromAny() error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, v.Keys()); diff != "" {
		t.Errorf("FromAny() keys not sorted (-want +got):\n%s", diff)
	}

	back, err := FromAny(v.Interface())
	if err != nil {
		t.Fatalf("FromAny(Interface()) error: %v", err)
	}
	if !Equal(v, back) {
		t.Error("Interface() round trip changed the tree")
	}
}

func TestFromAny_Unsupported(t *testing.T) {
	if _, err := FromAny(struct{}{}); err == nil {
		t.Error("FromAny(struct{}) expected error")
	}
}

func TestEqual_Numbers(t *testing.T) {
	if !Equal(Number("1"), Number("1.0")) {
		t.Error("Equal(1, 1.0) = false, want true")
	}
	if Equal(Number("1"), String("1")) {
		t.Error("Equal(1, \"1\") = true, want false")
	}
	if Equal(Number("12345678901234567890"), Number("12345678901234567891")) {
		t.Error("Equal() treats distinct large integers as equal")
	}
	if !Equal(Number("1e3"), Number("1000")) {
		t.Error("Equal(1e3, 1000) = false, want true")
	}
	if Equal(Number("0.1"), Number("0.10000000000000001")) {
		t.Error("Equal(0.1, 0.10000000000000001) = true, want false")
	}
}

func TestSet_PanicsOnScalar(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Set on scalar did not panic")
		}
	}()
	v := String("x")
	v.Set("k", Null())
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{KindScalar: "scalar", KindArray: "array", KindObject: "object"}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
