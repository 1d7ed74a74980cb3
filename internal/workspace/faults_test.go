package workspace

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassifyAPIErrors(t *testing.T) {
	cases := []struct {
		code int
		want FaultKind
	}{
		{403, FaultForbidden},
		{404, FaultNotFound},
		{500, FaultUnknown},
	}
	for _, tc := range cases {
		err := &googleapi.Error{Code: tc.code, Message: "boom"}
		if got := Classify(err); got != tc.want {
			t.Fatalf("Classify(code %d) = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestClassifyWrappedAndPlainErrors(t *testing.T) {
	wrapped := fmt.Errorf("list folder: %w", &googleapi.Error{Code: 404})
	if got := Classify(wrapped); got != FaultNotFound {
		t.Fatalf("Classify(wrapped 404) = %s, want not-found", got)
	}
	if got := Classify(errors.New("dial tcp: timeout")); got != FaultUnknown {
		t.Fatalf("Classify(plain error) = %s, want unknown", got)
	}
}

func TestAccessErrorUnwraps(t *testing.T) {
	cause := &googleapi.Error{Code: 403}
	err := accessError("folder F1", cause)
	if err.Kind != FaultForbidden {
		t.Fatalf("Kind = %s, want forbidden", err.Kind)
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		t.Fatal("AccessError does not unwrap to the API error")
	}
}
