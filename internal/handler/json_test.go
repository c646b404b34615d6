package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/msomdec/stitch-flow/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get project: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: name is required", domain.ErrValidation), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: ping database", domain.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: write profile", domain.ErrMigrationFailed), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDescribeScreenCoversEveryScreen(t *testing.T) {
	for _, s := range domain.Screens() {
		v, err := DescribeScreen(s)
		if err != nil {
			t.Fatalf("DescribeScreen(%s): %v", s, err)
		}
		if v.Title == "" {
			t.Errorf("%s has no title", s)
		}
		wantRegion := regionMain
		if s.IsOnboarding() {
			wantRegion = regionOnboarding
		}
		if v.Region != wantRegion {
			t.Errorf("%s: region %s, want %s", s, v.Region, wantRegion)
		}
	}

	if _, err := DescribeScreen("nowhere"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown screen, got %v", err)
	}
}
