package validation

import (
	"strings"
	"testing"
)

func TestValidateFindPathRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         FindPathRequest
		expectError bool
		errorField  string
	}{
		{
			name: "Valid request without weights",
			req:  FindPathRequest{Start: intPtr(0), End: intPtr(3)},
		},
		{
			name: "Valid request with weights",
			req: FindPathRequest{
				Start:   intPtr(1),
				End:     intPtr(1),
				Weights: &WeightsRequest{Latency: 1, Load: 0, Security: 0.2},
			},
		},
		{
			name:        "Missing start",
			req:         FindPathRequest{End: intPtr(3)},
			expectError: true,
			errorField:  "Start",
		},
		{
			name:        "Missing end",
			req:         FindPathRequest{Start: intPtr(3)},
			expectError: true,
			errorField:  "End",
		},
		{
			name: "Negative latency weight",
			req: FindPathRequest{
				Start:   intPtr(0),
				End:     intPtr(1),
				Weights: &WeightsRequest{Latency: -0.5},
			},
			expectError: true,
			errorField:  "Latency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFindPathRequest(&tt.req)
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error for field %s, got nil", tt.errorField)
				}
				if !containsField(err.Error(), tt.errorField) {
					t.Errorf("Expected error mentioning %s, got: %v", tt.errorField, err)
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRouteRequest(t *testing.T) {
	if err := ValidateRouteRequest(&RouteRequest{Source: intPtr(0), Destination: intPtr(7)}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := ValidateRouteRequest(&RouteRequest{Source: intPtr(0)}); err == nil {
		t.Error("Expected error for missing destination")
	}
	if err := ValidateRouteRequest(nil); err == nil {
		t.Error("Expected error for nil request")
	}
}

func TestValidateEvaporateRequest(t *testing.T) {
	tests := []struct {
		rho         float64
		expectError bool
	}{
		{0.8, false},
		{0.01, false},
		{0, true},
		{1, true},
		{-0.3, true},
		{1.7, true},
	}

	for _, tt := range tests {
		err := ValidateEvaporateRequest(&EvaporateRequest{Rho: tt.rho})
		if tt.expectError && err == nil {
			t.Errorf("rho %v: expected error", tt.rho)
		}
		if !tt.expectError && err != nil {
			t.Errorf("rho %v: unexpected error %v", tt.rho, err)
		}
	}
}

func TestValidateDecayRequest(t *testing.T) {
	if err := ValidateDecayRequest(&DecayRequest{Amount: 0.3, Exclude: []int{0, 7}}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := ValidateDecayRequest(&DecayRequest{Amount: -1}); err == nil || !containsField(err.Error(), "Amount") {
		t.Errorf("Expected Amount error, got %v", err)
	}
	if err := ValidateDecayRequest(&DecayRequest{Amount: 1, Exclude: make([]int, MaxExcludedNodes+1)}); err == nil {
		t.Error("Expected error for too many excluded nodes")
	}
}

func TestStruct_NestedNamespace(t *testing.T) {
	type inner struct {
		Capacity float64 `validate:"gt=0"`
	}
	type outer struct {
		Nodes []inner `validate:"required,min=1,dive"`
	}

	err := Struct(&outer{Nodes: []inner{{Capacity: 10}, {Capacity: 0}}})
	if err == nil {
		t.Fatal("Expected error for zero capacity")
	}
	if !strings.Contains(err.Error(), "Nodes[1].Capacity") {
		t.Errorf("Expected namespaced field in error, got: %v", err)
	}
}

// Helper functions

func containsField(errMsg, field string) bool {
	return strings.Contains(errMsg, field)
}

func intPtr(i int) *int {
	return &i
}
